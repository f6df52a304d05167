package database

// Tables owned by the bot and the web application that the commands inspect.
const (
	UsersTable        = "users"
	TransactionsTable = "transactions"
	ProfilesTable     = "profiles"
)
