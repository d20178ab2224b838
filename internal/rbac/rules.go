package rbac

const (
	PermQuestionView   = "question:view"
	PermQuestionEdit   = "question:edit"
	PermQuestionGrade  = "question:grade"
	PermQuestionExport = "question:export"
)

// Default policy.
var RolePermissions = map[string][]string{
	"student": {
		PermQuestionView,
		PermQuestionGrade,
	},
	"teacher": {
		"question:*",
	},
	"admin": {
		"*", // everything
	},
}
