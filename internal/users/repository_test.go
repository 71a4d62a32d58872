package users

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	_ "github.com/pijar-hq/pijar/testing"
)

func TestConstraintViolatedMatchesDriverError(t *testing.T) {
	fk := &pgconn.PgError{Code: "23503", ConstraintName: "profiles_role_id_fkey"}

	assert.True(t, constraintViolated(fk, "profiles_role_id_fkey"))
	assert.True(t, constraintViolated(fmt.Errorf("assign role: %w", fk), "profiles_role_id_fkey"))
	assert.False(t, constraintViolated(fk, "roles_name_key"))
	assert.False(t, constraintViolated(errors.New("connection reset"), "profiles_role_id_fkey"))
}
