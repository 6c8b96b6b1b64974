// Package rounds is the read-only round configuration table: titles,
// welcome text, permitted actions and countdown length per round type.
package rounds

import (
	"slices"
	"time"

	"github.com/terra-clan/interview-coach/internal/models"
)

// Config describes one round type
type Config struct {
	Round     models.RoundType `json:"round" yaml:"-"`
	Title     string           `json:"title"`
	Welcome   string           `json:"welcome"`
	Actions   []models.Action  `json:"actions"`
	ShowCode  bool             `json:"show_code"`
	Languages []string         `json:"languages,omitempty"`
	Duration  time.Duration    `json:"-"`
	// Minutes mirrors Duration for API consumers
	Minutes int `json:"minutes"`
}

// Permits reports whether a is one of the round's actions
func (c *Config) Permits(a models.Action) bool {
	return slices.Contains(c.Actions, a)
}

// Table maps every round type to its configuration
type Table struct {
	rounds map[models.RoundType]*Config
}

// Default returns the built-in table
func Default() *Table {
	return &Table{rounds: map[models.RoundType]*Config{
		models.RoundDSA: {
			Round:   models.RoundDSA,
			Title:   "Data Structures & Algorithms",
			Welcome: "Welcome to the DSA round. I will present a problem, and you'll explain your approach and write code. Ready to begin?",
			Actions: []models.Action{
				models.ActionExplainApproach,
				models.ActionRunCode,
				models.ActionAskForHint,
			},
			ShowCode:  true,
			Languages: []string{"scala", "javascript", "python", "java", "cpp"},
			Duration:  45 * time.Minute,
		},
		models.RoundLLD: {
			Round:    models.RoundLLD,
			Title:    "Low-Level Design",
			Welcome:  "Welcome to the LLD round. You'll design a component with classes, APIs, and OOP principles. Ready to start?",
			Actions:  []models.Action{models.ActionProposeDesign, models.ActionClarifyRequirement},
			Duration: 35 * time.Minute,
		},
		models.RoundHLD: {
			Round:    models.RoundHLD,
			Title:    "High-Level Design",
			Welcome:  "Welcome to the HLD round. Design a large-scale system architecture. Think about scalability and technology choices. Ready?",
			Actions:  []models.Action{models.ActionProposeArchitecture, models.ActionAskForClarification},
			Duration: 45 * time.Minute,
		},
		models.RoundBehavioral: {
			Round:    models.RoundBehavioral,
			Title:    "Behavioral Round",
			Welcome:  "Welcome to the Behavioral round. I'll ask about your experiences and how you handle challenges. Be open and reflective. Ready?",
			Actions:  []models.Action{models.ActionSubmitAnswer},
			Duration: 30 * time.Minute,
		},
	}}
}

// Get returns the configuration for r, or nil for an unknown round
func (t *Table) Get(r models.RoundType) *Config {
	c, ok := t.rounds[r]
	if !ok {
		return nil
	}
	cp := *c
	cp.Actions = slices.Clone(c.Actions)
	cp.Languages = slices.Clone(c.Languages)
	cp.Minutes = int(c.Duration / time.Minute)
	return &cp
}

// All returns every round configuration in interview order
func (t *Table) All() []*Config {
	out := make([]*Config, 0, models.RoundCount)
	for _, r := range models.AllRounds() {
		if c := t.Get(r); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Duration implements timer.Durations. Unknown rounds get zero, which the
// timer replaces with its default.
func (t *Table) Duration(r models.RoundType) time.Duration {
	if c, ok := t.rounds[r]; ok {
		return c.Duration
	}
	return 0
}
