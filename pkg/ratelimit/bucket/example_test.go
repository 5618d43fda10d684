package bucket_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vnykmshr/tokengate/pkg/ratelimit/bucket"
)

// Example demonstrates non-blocking admission with TryAcquire.
func Example() {
	// 3 tokens, refilled one every second
	b, err := bucket.NewSafe(3, 1, time.Second)
	if err != nil {
		panic(fmt.Sprintf("Failed to create bucket: %v", err))
	}

	for i := 1; i <= 4; i++ {
		p, err := b.TryAcquire(1)
		if errors.Is(err, bucket.ErrInsufficientTokens) {
			fmt.Printf("Request %d: back off\n", i)
			continue
		}
		p.Consume()
		fmt.Printf("Request %d: admitted\n", i)
	}

	// Output:
	// Request 1: admitted
	// Request 2: admitted
	// Request 3: admitted
	// Request 4: back off
}

// Example_acquire demonstrates waiting for capacity with a deadline.
func Example_acquire() {
	b := bucket.New(bucket.MustRateConfig(1, 1, time.Second))

	p, err := b.Acquire(context.Background(), 1)
	if err != nil {
		panic(err)
	}
	p.Consume()
	fmt.Println("First request processed")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := b.Acquire(ctx, 1); err != nil {
		fmt.Printf("Second request gave up: %v\n", err)
	}

	// Output:
	// First request processed
	// Second request gave up: context deadline exceeded
}

// Example_do demonstrates the scoped permit helper: tokens come back unless consumed.
func Example_do() {
	b := bucket.New(bucket.MustRateConfig(5, 1, time.Minute))

	_ = b.Do(context.Background(), 3, func(ctx context.Context, p *bucket.Permit) error {
		return errors.New("dry run")
	})
	fmt.Println("after dry run:", b.Available())

	_ = b.Do(context.Background(), 3, func(ctx context.Context, p *bucket.Permit) error {
		p.Consume()
		return nil
	})
	fmt.Println("after real run:", b.Available())

	// Output:
	// after dry run: 5
	// after real run: 2
}

// Example_requestTooLarge shows the error for a request the bucket can never serve.
func Example_requestTooLarge() {
	b := bucket.New(bucket.MustRateConfig(5, 1, time.Second))

	_, err := b.Acquire(context.Background(), 8)
	var tooLarge *bucket.RequestExceedsCapacityError
	if errors.As(err, &tooLarge) {
		fmt.Printf("requested %d, capacity %d\n", tooLarge.Requested, tooLarge.Capacity)
	}

	// Output: requested 8, capacity 5
}
