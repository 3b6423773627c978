package arm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreCommandSnapshot(t *testing.T) {
	s := NewStore(Rotunda, Elbow)

	cmd, seq := s.Command(Rotunda)
	assert.Equal(t, Command{}, cmd)
	assert.EqualValues(t, 0, seq)

	s.PostCommand(Rotunda, Command{Target: 1800, Direction: Forward})
	cmd, seq = s.Command(Rotunda)
	assert.Equal(t, 1800.0, cmd.Target)
	assert.EqualValues(t, 1, seq)

	// Re-posting bumps the sequence even with identical payload, so a task
	// can tell a corrected command from a stale one.
	s.PostCommand(Rotunda, Command{Target: 1800, Direction: Forward})
	_, seq = s.Command(Rotunda)
	assert.EqualValues(t, 2, seq)

	// The elbow slot is untouched.
	_, seq = s.Command(Elbow)
	assert.EqualValues(t, 0, seq)
}

func TestStoreHalt(t *testing.T) {
	s := NewStore(Claw)
	s.PostCommand(Claw, Command{Speed: 60, Direction: Forward})

	s.Halt(Claw)
	cmd, _ := s.Command(Claw)
	assert.Equal(t, Stop, cmd.Direction)
	assert.Equal(t, 0, cmd.Speed)
}

func TestStoreStateRoundTrip(t *testing.T) {
	s := NewStore(Shoulder)

	st := State{Position: 42.5, Fault: FaultOutOfRange, Phase: PhaseRunning}
	s.PublishState(Shoulder, st)
	assert.Equal(t, st, s.State(Shoulder))
}

// Slots are independently locked: concurrent writers on different joints and
// a concurrent supervisor reader must not corrupt each other. Run with -race.
func TestStoreConcurrentSlots(t *testing.T) {
	joints := AllJoints()
	s := NewStore(joints...)

	var wg sync.WaitGroup
	for _, j := range joints {
		wg.Add(2)

		go func(j Name) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s.PublishState(j, State{Position: float64(i), Phase: PhaseRunning})
			}
		}(j)

		go func(j Name) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s.PostCommand(j, Command{Target: float64(i), Direction: Forward})
				s.Command(j)
				s.State(j)
			}
		}(j)
	}
	wg.Wait()

	for _, j := range joints {
		_, seq := s.Command(j)
		assert.EqualValues(t, 1000, seq, "joint %s", j)
		assert.Equal(t, 999.0, s.State(j).Position, "joint %s", j)
	}
}

func TestDirectionValid(t *testing.T) {
	assert.True(t, Stop.Valid())
	assert.True(t, Forward.Valid())
	assert.True(t, Reverse.Valid())
	assert.False(t, Direction(3).Valid())
	assert.False(t, Direction(-1).Valid())
}
