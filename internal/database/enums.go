package database

// Single home for every string union used across the API. Handlers validate
// against these sets instead of re-declaring the literals.

type TaskStatus string
type TaskPriority string
type TaskType string
type FieldType string
type FieldScope string
type RFIStatus string
type RFIPriority string
type QuoteStatus string

const (
	TaskBacklog    TaskStatus = "BACKLOG"
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskInReview   TaskStatus = "IN_REVIEW"
	TaskBlocked    TaskStatus = "BLOCKED"
	TaskDone       TaskStatus = "DONE"

	PriorityLow      TaskPriority = "LOW"
	PriorityMedium   TaskPriority = "MEDIUM"
	PriorityHigh     TaskPriority = "HIGH"
	PriorityCritical TaskPriority = "CRITICAL"

	TypeDevelopment    TaskType = "DEVELOPMENT"
	TypeBugFix         TaskType = "BUG_FIX"
	TypeResearch       TaskType = "RESEARCH"
	TypeInfrastructure TaskType = "INFRASTRUCTURE"
	TypeDesign         TaskType = "DESIGN"

	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldBoolean  FieldType = "boolean"
	FieldDate     FieldType = "date"
	FieldTextarea FieldType = "textarea"
	FieldFile     FieldType = "file"

	ScopePublic        FieldScope = "public"
	ScopeInternal      FieldScope = "internal"
	ScopeManufacturing FieldScope = "manufacturing"
	ScopeInstallation  FieldScope = "installation"

	RFIOpen     RFIStatus = "open"
	RFIAnswered RFIStatus = "answered"
	RFIClosed   RFIStatus = "closed"

	RFILow    RFIPriority = "low"
	RFIMedium RFIPriority = "medium"
	RFIHigh   RFIPriority = "high"

	QuoteDraft    QuoteStatus = "draft"
	QuoteSent     QuoteStatus = "sent"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
)

var (
	TaskStatuses   = []TaskStatus{TaskBacklog, TaskTodo, TaskInProgress, TaskInReview, TaskBlocked, TaskDone}
	TaskPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
	TaskTypes      = []TaskType{TypeDevelopment, TypeBugFix, TypeResearch, TypeInfrastructure, TypeDesign}
	FieldTypes     = []FieldType{FieldText, FieldNumber, FieldSelect, FieldBoolean, FieldDate, FieldTextarea, FieldFile}
	FieldScopes    = []FieldScope{ScopePublic, ScopeInternal, ScopeManufacturing, ScopeInstallation}
	RFIStatuses    = []RFIStatus{RFIOpen, RFIAnswered, RFIClosed}
	RFIPriorities  = []RFIPriority{RFILow, RFIMedium, RFIHigh}
)

func ValidTaskStatus(v string) bool   { return containsString(TaskStatuses, TaskStatus(v)) }
func ValidTaskPriority(v string) bool { return containsString(TaskPriorities, TaskPriority(v)) }
func ValidTaskType(v string) bool     { return containsString(TaskTypes, TaskType(v)) }
func ValidFieldType(v string) bool    { return containsString(FieldTypes, FieldType(v)) }
func ValidFieldScope(v string) bool   { return containsString(FieldScopes, FieldScope(v)) }
func ValidRFIPriority(v string) bool  { return containsString(RFIPriorities, RFIPriority(v)) }

// ValidRFITransition enforces the forward-only RFI lifecycle:
// open -> answered -> closed, with open -> closed allowed and no reopen.
func ValidRFITransition(from, to RFIStatus) bool {
	switch from {
	case RFIOpen:
		return to == RFIAnswered || to == RFIClosed
	case RFIAnswered:
		return to == RFIClosed
	default:
		return false
	}
}

func containsString[T ~string](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
