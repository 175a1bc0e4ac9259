package domain

// ProblemType is static reference data used both to classify tickets
// and to match agents by specialization.
type ProblemType struct {
	ID          string
	Name        string
	Description string
}
