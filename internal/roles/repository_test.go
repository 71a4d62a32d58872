package roles

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	_ "github.com/pijar-hq/pijar/testing"
)

func TestConstraintViolatedMatchesDriverError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "roles_name_key"}

	assert.True(t, constraintViolated(dup, "roles_name_key"))
	assert.True(t, constraintViolated(fmt.Errorf("insert role: %w", dup), "roles_name_key"))
	assert.False(t, constraintViolated(dup, "role_permissions_permission_id_fkey"))
	assert.False(t, constraintViolated(errors.New("connection reset"), "roles_name_key"))
	assert.False(t, constraintViolated(nil, "roles_name_key"))
}
