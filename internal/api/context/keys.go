package context

type Key string

const (
	Claims  Key = "claims"
	Account Key = "account"
	Params  Key = "params"
)
