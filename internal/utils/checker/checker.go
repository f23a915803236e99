package checker

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CheckOwner rejects access to a record owned by someone else.
func CheckOwner(email, owner string) error {
	if email == "" {
		return status.Error(codes.Unauthenticated, "not signed in")
	}
	if email != owner {
		return status.Error(codes.PermissionDenied, "permission denied")
	}
	return nil
}
