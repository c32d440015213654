//go:build integration

package redisad

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"revscore/internal/domain"
)

func TestCache_AgainstRedisContainer(t *testing.T) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("docker pool: %v", err)
	}
	res, err := pool.RunWithOptions(&dockertest.RunOptions{Repository: "redis", Tag: "7-alpine"}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run redis: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(res) })

	addr := fmt.Sprintf("127.0.0.1:%s", res.GetPort("6379/tcp"))
	c := New(addr, "", 0)
	defer c.Close()

	pool.MaxWait = 60 * time.Second
	if err := pool.Retry(func() error { return c.Ping(context.Background()) }); err != nil {
		t.Fatalf("redis not ready: %v", err)
	}

	ctx := context.Background()
	in := domain.Report{ProductID: "phone-x", UserSentiment: "positive", FinalScore: 61}
	if err := c.Set(ctx, "report:phone-x", in, 30); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out domain.Report
	if ok, err := c.Get(ctx, "report:phone-x", &out); !ok || err != nil {
		t.Fatalf("get: %v, %v", ok, err)
	}
	if out.FinalScore != 61 || out.UserSentiment != "positive" {
		t.Fatalf("unexpected report %+v", out)
	}
}
