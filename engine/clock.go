package engine

import "fmt"

// Clock is the simulation time: a generation number and the step within it.
// Step counts completed steps, [0, stepsPerGen]; the generation ends when it
// reaches stepsPerGen.
type Clock struct {
	Generation int
	Step       int
}

// Next advances one step.
func (c Clock) Next() Clock {
	c.Step++
	return c
}

// Tick returns the 1-based number of the step about to run, in
// [1, stepsPerGen]. Sensors and death policies see this number.
func (c Clock) Tick() int {
	return c.Step + 1
}

// NextGeneration starts the following generation at step 0.
func (c Clock) NextGeneration() Clock {
	return Clock{Generation: c.Generation + 1}
}

// EndOfGeneration reports whether all steps of the generation have run.
func (c Clock) EndOfGeneration(stepsPerGen int) bool {
	return c.Step >= stepsPerGen
}

func (c Clock) String() string {
	return fmt.Sprintf("gen %d step %d", c.Generation, c.Step)
}
