package models

// call types accepted when starting an agent call
var ValidCallTypes = map[string]bool{
	"generate":  true,
	"interview": true,
}

// interview types accepted on a session record
var ValidInterviewTypes = map[string]bool{
	"technical":  true,
	"behavioral": true,
	"mixed":      true,
}

// defaults used when a generate-mode call has to create its own session record
const (
	DefaultInterviewRole  = "Software Engineer"
	DefaultInterviewType  = "Technical"
	DefaultInterviewLevel = "Junior"
)

var DefaultTechstack = []string{"JavaScript", "React", "Node.js"}

// score categories every feedback record must carry, in display order
var FeedbackCategories = []string{
	"Communication Skills",
	"Technical Knowledge",
	"Problem Solving",
	"Cultural & Role Fit",
	"Confidence & Clarity",
}

func ValidCallTypesList() []string {
	return []string{"generate", "interview"}
}

func ValidInterviewTypesList() []string {
	return []string{"technical", "behavioral", "mixed"}
}
