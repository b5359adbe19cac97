package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/retract/model/request"
	"github.com/viant/retract/service/dao/deletion"
	"github.com/viant/retract/service/dao/deletion/storetest"
)

// TestService_Integration requires a running Redis on localhost; it is
// skipped otherwise.
func TestService_Integration(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}
	storetest.Run(t, func(t *testing.T) deletion.Service {
		prefix := "retract-test:" + t.Name() + ":" + time.Now().Format(time.RFC3339Nano)
		t.Cleanup(func() {
			keys, _ := client.Keys(ctx, prefix+":*").Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		})
		return New(client, prefix)
	})
}

func TestEncodeDecode(t *testing.T) {
	decidedAt := time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC)
	r := storetest.NewRequest("k1", time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	r.ID = "r1"
	r.Status = request.StatusApproved
	r.DecidedBy = "A1"
	r.DeciderName = "Alice"
	r.DecidedAt = &decidedAt

	fields := encode(r)
	values := map[string]string{}
	for i := 0; i < len(fields); i += 2 {
		values[fields[i].(string)] = fields[i+1].(string)
	}
	actual, err := decode(values)
	require.NoError(t, err)
	assert.EqualValues(t, r, actual)
}
