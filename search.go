package blockoracle

import (
	"context"
	"sync"
)

// checkFunc reports whether the candidate g is accepted by the oracle.
type checkFunc func(g byte) (bool, error)

// searchByte checks every byte value using MaxGoroutines workers. It returns
// the accepted values in ascending order, so the result does not depend on
// scheduling.
func searchByte(check checkFunc) ([]byte, error) {
	// Generate a channel with values from 0 to 255.
	var values = make(chan byte, 256)
	for g := 0; g < 256; g++ {
		values <- byte(g)
	}
	close(values)

	workers := MaxGoroutines
	if workers < 1 {
		workers = 1
	}

	// Create workers.
	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan checkValueRes, 256)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		w := oracleWorker{ctx, cancel, &wg, check, values, done}
		go w.checkValues()
	}

	// Wait until all the workers have finished.
	wg.Wait()
	close(done)

	var accepted [256]bool
	for res := range done {
		if res.Err != nil {
			return nil, res.Err
		}
		accepted[res.Res] = true
	}
	var matches []byte
	for g, ok := range accepted {
		if ok {
			matches = append(matches, byte(g))
		}
	}
	return matches, nil
}

type checkValueRes struct {
	Err error
	Res byte
}

type oracleWorker struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
	check  checkFunc
	read   <-chan byte
	done   chan<- checkValueRes
}

// checkValues stops at the first oracle error. Matches do not stop it: every
// candidate has to be seen to tell a unique match from an ambiguous one.
func (o oracleWorker) checkValues() {
	defer o.wg.Done()
LOOP:
	for {
		select {
		case g, open := <-o.read:
			if !open {
				break LOOP
			}
			ok, err := o.check(g)
			if err != nil {
				o.done <- checkValueRes{Err: err}
				o.cancel()
				break LOOP
			}
			if ok {
				o.done <- checkValueRes{Res: g}
			}
		case <-o.ctx.Done():
			break LOOP
		}
	}
}
