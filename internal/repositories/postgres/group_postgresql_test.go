package postgres

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// Membership can change between join and send, so IsMember must answer from
// the database on every call. A leftover affirmative answer in redis, as the
// old cached path would have written, must never grant access.
func TestIsMemberIgnoresCachedAnswer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	if err := mr.Set("member:group-1:user-1", "true"); err != nil {
		t.Fatalf("seed redis: %v", err)
	}

	// No database behind the repository: the only way to get a clean
	// affirmative answer here is to trust the seeded redis key.
	repo := NewGroupPostgreSQL(nil, client)

	defer func() {
		// Faulting on the absent database is the acceptable outcome; it
		// proves the check did not stop at redis.
		_ = recover()
	}()
	isMember, err := repo.IsMember(context.Background(), "group-1", "user-1")
	if err == nil && isMember {
		t.Fatal("membership granted without consulting the database")
	}
}
