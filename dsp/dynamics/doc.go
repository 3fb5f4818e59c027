// Package dynamics implements the ducking compressor core: a normalized
// parameter set and a per-sample envelope follower and gain stage.
//
// Two detector strategies are provided and are deliberately kept apart:
//   - StrategyFeedforwardRMS: RMS detection of the input, an asymmetric
//     attack/release integrator and a sigmoid gain curve bounded by range.
//   - StrategyFeedbackRectified: rectified detection of the already reduced
//     output driving a linear gain law.
//
// The per-sample path performs no allocation, I/O or locking. Parameter
// fields are individually atomic so a UI goroutine may write them while
// the audio goroutine processes.
package dynamics
