// Package kb holds the curated campus knowledge base and the rule-based matcher
// that answers from it without any network call.
package kb

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Entry struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

// Keyword maps a lower-case trigger word or phrase to an answer.
type Keyword struct {
	Keyword string
	Answer  string
}

// KnowledgeBase is read-only after construction. Entry order is the match tie-break.
type KnowledgeBase struct {
	entries  []Entry
	keywords []Keyword
}

var defaultEntries = []Entry{
	{
		Question: "Where is the library?",
		Answer:   "The main university library is located in Building A, Level 2. Opening hours: Mon-Fri 8:30am - 10:00pm, Sat 9:00am - 5:00pm. For borrowing & returns use your student card at the front desk or the self-checkout kiosks.",
	},
	{
		Question: "How do I register for exams?",
		Answer:   "Exam registration is done via the student portal under 'Academic > Exam Registration'. Make sure you've paid all necessary fees and completed course enrollment before the registration deadline. Contact the Exams Office if you face issues.",
	},
	{
		Question: "How can I reset my student portal password?",
		Answer:   "Reset your password at the portal's 'Forgot Password' link. If that fails, submit a help ticket to IT Support with your student ID and a photo ID for verification.",
	},
	{
		// "Where ..." would be captured by the library entry's token rule.
		Question: "How do I apply for scholarships?",
		Answer:   "Visit the Scholarships page under Student Services for current openings. Some scholarships require faculty nomination, so check eligibility carefully and prepare transcripts and recommendation letters.",
	},
	{
		Question: "What are the library's rules for group study rooms?",
		Answer:   "Group study rooms can be booked online via the library booking system for up to 2 hours at a time. Keep noise to a minimum and leave the room tidy. No food or drinks allowed in certain rooms, check room details when booking.",
	},
}

// keyword -> index into defaultEntries
var defaultKeywords = []struct {
	keyword string
	entry   int
}{
	{"library", 0},
	{"exam", 1},
	{"register", 1},
	{"password", 2},
	{"scholarship", 3},
	{"group study", 4},
	{"study room", 4},
}

// Default returns the built-in knowledge base.
func Default() *KnowledgeBase {
	keywords := make([]Keyword, 0, len(defaultKeywords))
	for _, k := range defaultKeywords {
		keywords = append(keywords, Keyword{Keyword: k.keyword, Answer: defaultEntries[k.entry].Answer})
	}
	kb, err := New(defaultEntries, keywords)
	if err != nil {
		panic(fmt.Sprintf("kb: built-in knowledge base is invalid: %v", err))
	}
	return kb
}

// New validates and copies entries and keywords. Keywords are lower-cased.
func New(entries []Entry, keywords []Keyword) (*KnowledgeBase, error) {
	if len(entries) == 0 {
		return nil, errors.New("knowledge base needs at least one entry")
	}
	kb := &KnowledgeBase{
		entries:  make([]Entry, len(entries)),
		keywords: make([]Keyword, 0, len(keywords)),
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Question) == "" || strings.TrimSpace(e.Answer) == "" {
			return nil, fmt.Errorf("entry %d: question and answer are required", i)
		}
		kb.entries[i] = e
	}
	for i, k := range keywords {
		kw := strings.ToLower(strings.TrimSpace(k.Keyword))
		if kw == "" {
			return nil, fmt.Errorf("keyword %d: empty keyword", i)
		}
		kb.keywords = append(kb.keywords, Keyword{Keyword: kw, Answer: k.Answer})
	}
	return kb, nil
}

type fileFormat struct {
	Entries  []Entry `yaml:"entries"`
	Keywords []struct {
		Keyword string `yaml:"keyword"`
		Entry   int    `yaml:"entry"`
	} `yaml:"keywords"`
}

// Load reads an externalized knowledge base. Keyword answers come from the
// referenced entry so the index stays derived from the entries.
func Load(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base %s: %w", path, err)
	}
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base %s: %w", path, err)
	}
	keywords := make([]Keyword, 0, len(f.Keywords))
	for _, k := range f.Keywords {
		if k.Entry < 0 || k.Entry >= len(f.Entries) {
			return nil, fmt.Errorf("keyword %q references entry %d, have %d entries", k.Keyword, k.Entry, len(f.Entries))
		}
		keywords = append(keywords, Keyword{Keyword: k.Keyword, Answer: f.Entries[k.Entry].Answer})
	}
	kb, err := New(f.Entries, keywords)
	if err != nil {
		return nil, fmt.Errorf("invalid knowledge base %s: %w", path, err)
	}
	return kb, nil
}

func (kb *KnowledgeBase) Entries() []Entry {
	cp := make([]Entry, len(kb.entries))
	copy(cp, kb.entries)
	return cp
}

func (kb *KnowledgeBase) Keywords() []Keyword {
	cp := make([]Keyword, len(kb.keywords))
	copy(cp, kb.keywords)
	return cp
}

func (kb *KnowledgeBase) Questions() []string {
	out := make([]string, len(kb.entries))
	for i, e := range kb.entries {
		out[i] = e.Question
	}
	return out
}
