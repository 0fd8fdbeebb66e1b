package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func TestCodeRegistryReserveRelease(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	reg := NewCodeRegistry(newClient(mr), time.Hour)

	if !reg.Reserve(ctx, 123456) {
		t.Fatalf("fresh code must reserve")
	}
	if reg.Reserve(ctx, 123456) {
		t.Fatalf("double reservation must fail")
	}
	reg.Release(ctx, 123456)
	if !reg.Reserve(ctx, 123456) {
		t.Fatalf("released code must reserve again")
	}
}

func TestCodeRegistryReservationsExpire(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	reg := NewCodeRegistry(newClient(mr), time.Minute)

	if !reg.Reserve(ctx, 111111) {
		t.Fatalf("fresh code must reserve")
	}
	mr.FastForward(2 * time.Minute)
	if !reg.Reserve(ctx, 111111) {
		t.Fatalf("expired reservation must free the code")
	}
}
