package testutil

import (
	"fmt"

	"github.com/google/uuid"
)

// SeqUUID returns a readable, deterministic UUID: SeqUUID(7) is
// 00000000-0000-0000-0000-000000000007.
func SeqUUID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}
