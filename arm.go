package arm

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithFields(logrus.Fields{
	"pkg": "arm",
})

// Component is a periodic task owned by the arm. Each component runs in its
// own goroutine at its own period; the only ordering guarantee is within a
// single Tick.
type Component interface {
	Name() string
	Period() time.Duration
	Boot() error
	Tick(now time.Time) error
}

// Arm owns the shared parameter store and the set of periodic tasks (one per
// joint, plus auxiliary tasks such as diagnostics).
type Arm struct {
	Store      *Store
	components []Component
	wg         sync.WaitGroup
}

func New(store *Store) *Arm {
	return &Arm{
		Store:      store,
		components: []Component{},
	}
}

// Add registers a component to be spawned.
func (a *Arm) Add(c Component) {
	a.components = append(a.components, c)
}

// Boot calls Boot on each component, in registration order. Any error aborts
// the boot; nothing has been spawned yet, so there is nothing to unwind.
func (a *Arm) Boot() error {
	for _, c := range a.components {
		log.WithFields(logrus.Fields{
			"component": c.Name(),
		}).Info("booting")

		err := c.Boot()
		if err != nil {
			return err
		}
	}

	return nil
}

// Spawn starts one goroutine per component. Each loops on its own ticker
// until the context is cancelled, so the period delay is the single
// suspension point of every cycle. Tick errors are logged, never fatal; a
// component that cannot work safely is expected to stop its own actuator and
// report a fault through the store.
func (a *Arm) Spawn(ctx context.Context) {
	for _, c := range a.components {
		a.wg.Add(1)

		go func(c Component) {
			defer a.wg.Done()

			t := time.NewTicker(c.Period())
			defer t.Stop()

			for {
				select {
				case <-ctx.Done():
					return

				case now := <-t.C:
					err := c.Tick(now)
					if err != nil {
						log.WithFields(logrus.Fields{
							"component": c.Name(),
							"error":     err,
						}).Error("tick failed")
					}
				}
			}
		}(c)
	}
}

// Wait blocks until every spawned component has returned.
func (a *Arm) Wait() {
	a.wg.Wait()
}
