package submission

// Assignment is the read-only handle the converter needs to locate files.
type Assignment struct {
	ID             int64
	CourseModuleID int64
	ContextID      int64
	Name           string
}

// Submission is one student's (or one group's) submission to an assignment.
type Submission struct {
	ID            int64
	AssignmentID  int64
	UserID        int64
	GroupID       int64
	AttemptNumber int
	Status        string
}

// IsGroup reports whether the submission belongs to a group rather than a user.
func (s Submission) IsGroup() bool {
	return s.UserID == 0
}
