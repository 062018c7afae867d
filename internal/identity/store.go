package identity

import "context"

// Store is the credential persistence boundary consumed by the auth layer.
//
// Contract:
//   - FindByEmail / FindByUsername match against normalized values and
//     return a NotFoundError when no user exists.
//   - Insert is atomic: on a uniqueness violation it returns a
//     ConflictError (Field "email" or "username") and leaves no partial
//     record. Email is the primary uniqueness anchor; username is unique
//     by policy as well.
//   - Update persists username, password hash, and reset-token fields for
//     an existing user, mapping uniqueness violations the same way.
type Store interface {
	FindByID(ctx context.Context, id int64) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	Insert(ctx context.Context, in InsertInput) (User, error)
	Update(ctx context.Context, u User) error
}
