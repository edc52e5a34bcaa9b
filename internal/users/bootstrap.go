package users

import (
	"context"

	"github.com/Brocoder07/ShopStream/internal/auth"
)

// EnsureAdmin creates the administrator account once at startup. The
// existence check makes repeated calls no-ops.
func EnsureAdmin(ctx context.Context, st Store, email, password string) error {
	exists, err := st.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := User{
		Username:     "Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         RoleAdmin,
	}
	return st.Create(ctx, &admin)
}
