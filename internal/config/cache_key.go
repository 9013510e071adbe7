package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// CandidateSessionKey returns the cache key for a candidate's login session
func (r *CacheKeyStruct) CandidateSessionKey(candidateID int) string {
	return fmt.Sprintf("login:%d", candidateID)
}

// AssessmentPayloadKey returns the cache key for a published assessment's
// candidate-facing payload (answer keys stripped)
func (r *CacheKeyStruct) AssessmentPayloadKey(assessmentID string) string {
	return fmt.Sprintf("assessment:%s:payload", assessmentID)
}

// AssessmentDefinitionKey returns the cache key for a published assessment's
// full definition (answer keys included, server-side only)
func (r *CacheKeyStruct) AssessmentDefinitionKey(assessmentID string) string {
	return fmt.Sprintf("assessment:%s:definition", assessmentID)
}

// AttemptSnapshotKey returns the cache key for an attempt's latest snapshot
func (r *CacheKeyStruct) AttemptSnapshotKey(attemptID string) string {
	return fmt.Sprintf("attempt:%s:snapshot", attemptID)
}

// CandidateActiveAttemptKey returns the cache key for a candidate's currently
// active attempt
func (r *CacheKeyStruct) CandidateActiveAttemptKey(candidateID int) string {
	return fmt.Sprintf("candidate:%d:active_attempt", candidateID)
}

var CacheKey = NewCacheKeyStruct()
