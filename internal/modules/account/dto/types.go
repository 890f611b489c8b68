package dto

type LoginInput struct {
	Email    string
	Password string
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type UserOutput struct {
	ID    string
	Name  string
	Email string
}

type RestoreOutput struct {
	Authenticated bool
	User          UserOutput
}
