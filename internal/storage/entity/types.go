package entity

type ID = int64

type IdentifiableEntity struct {
	ID ID
}

type UserSummary struct {
	ID       ID
	Username string
}

type Page struct {
	Limit  int
	Skip   int
	Search string
}
