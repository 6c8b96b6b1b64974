package models

import (
	"errors"
	"strings"
)

// ErrUnknownRound is returned when a round identifier is not one of the four round types
var ErrUnknownRound = errors.New("unknown round type")

// RoundType identifies one of the fixed interview segments
type RoundType string

const (
	RoundDSA        RoundType = "dsa"        // Algorithmic coding
	RoundLLD        RoundType = "lld"        // Low-level design
	RoundHLD        RoundType = "hld"        // High-level design
	RoundBehavioral RoundType = "behavioral" // Behavioral
)

// AllRounds returns every round type in presentation order
func AllRounds() []RoundType {
	return []RoundType{RoundDSA, RoundLLD, RoundHLD, RoundBehavioral}
}

// RoundCount is the number of round types a full interview consists of
const RoundCount = 4

// ParseRoundType validates a round identifier
func ParseRoundType(s string) (RoundType, error) {
	switch r := RoundType(strings.ToLower(strings.TrimSpace(s))); r {
	case RoundDSA, RoundLLD, RoundHLD, RoundBehavioral:
		return r, nil
	}
	return "", ErrUnknownRound
}

// Valid reports whether r is one of the four round types
func (r RoundType) Valid() bool {
	_, err := ParseRoundType(string(r))
	return err == nil
}

// Upper returns the round identifier as shown in user-facing messages
func (r RoundType) Upper() string {
	return strings.ToUpper(string(r))
}

// Difficulty is the requested problem difficulty
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps free-form input to a difficulty, defaulting to easy
func ParseDifficulty(s string) Difficulty {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyMedium, DifficultyHard:
		return d
	default:
		return DifficultyEasy
	}
}

// Upper returns the difficulty in the upper-case form used by problem sources and headings
func (d Difficulty) Upper() string {
	return strings.ToUpper(string(d))
}
