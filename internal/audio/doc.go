// Package audio plays the start sequence cues.
//
// Cues are short wav assets (single beep, double beep, long beep) played
// through an external binary such as aplay. Playback is asynchronous
// relative to the sequence timeline: the engine fires a cue and moves on,
// and a missing asset or dead audio subsystem degrades to silence rather
// than aborting the run.
package audio
