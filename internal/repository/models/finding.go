package models

import "fmt"

type FindingKind int8

const (
	FindingCommentCount        FindingKind = iota
	FindingLongLine            FindingKind = iota
	FindingBannedConstruct     FindingKind = iota
	FindingMultiReturnFunction FindingKind = iota
)

var findingKindNames = map[FindingKind]string{
	FindingCommentCount:        "comment_count",
	FindingLongLine:            "long_line",
	FindingBannedConstruct:     "banned_construct",
	FindingMultiReturnFunction: "multi_return_function",
}

func (k FindingKind) String() string {
	if name, ok := findingKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("finding_kind(%d)", int8(k))
}

func (k FindingKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *FindingKind) UnmarshalText(text []byte) error {
	for kind, name := range findingKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown finding kind %q", text)
}

// Finding is a single static analysis observation. Which fields are
// meaningful depends on Kind:
//
//	comment_count:         Count
//	long_line:             Line, Words
//	banned_construct:      Line, Construct
//	multi_return_function: Line (the def line), Function, Returns
type Finding struct {
	Kind      FindingKind `json:"kind" yaml:"kind"`
	Line      int         `json:"line,omitempty" yaml:"line,omitempty"`
	Count     int         `json:"count,omitempty" yaml:"count,omitempty"`
	Words     int         `json:"words,omitempty" yaml:"words,omitempty"`
	Construct string      `json:"construct,omitempty" yaml:"construct,omitempty"`
	Function  string      `json:"function,omitempty" yaml:"function,omitempty"`
	Returns   int         `json:"returns,omitempty" yaml:"returns,omitempty"`
}

func CommentCount(n int) Finding {
	return Finding{Kind: FindingCommentCount, Count: n}
}

func LongLine(line, words int) Finding {
	return Finding{Kind: FindingLongLine, Line: line, Words: words}
}

func BannedConstruct(construct string, line int) Finding {
	return Finding{Kind: FindingBannedConstruct, Construct: construct, Line: line}
}

func MultiReturnFunction(function string, line, returns int) Finding {
	return Finding{Kind: FindingMultiReturnFunction, Function: function, Line: line, Returns: returns}
}

// IsIssue reports whether the finding is a violation. The comment count is
// informational only.
func (f Finding) IsIssue() bool {
	return f.Kind != FindingCommentCount
}

type AnalysisResult struct {
	Findings []Finding `json:"findings" yaml:"findings"`
	// Warnings describe places where the source could not be scanned
	// cleanly, e.g. an unterminated string. They are not issues.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func (a *AnalysisResult) ByKind(kind FindingKind) []Finding {
	var out []Finding
	for _, f := range a.Findings {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func (a *AnalysisResult) CommentCount() int {
	for _, f := range a.Findings {
		if f.Kind == FindingCommentCount {
			return f.Count
		}
	}
	return 0
}

func (a *AnalysisResult) IssueCount() int {
	n := 0
	for _, f := range a.Findings {
		if f.IsIssue() {
			n++
		}
	}
	return n
}
