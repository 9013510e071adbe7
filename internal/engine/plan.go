package engine

import (
	"fmt"

	"github.com/prepstack/mockexam-backend/internal/model"
)

// Plan is the compiled, immutable view of an assessment definition that the
// reducer runs against: every section flattened once, with per-section
// question indexes for validation and scoring. Plans are shared read-only
// between the reducer, palette, and scoring engine.
type Plan struct {
	AssessmentID string
	Title        string
	Sections     []SectionPlan
}

// SectionPlan is one compiled section.
type SectionPlan struct {
	ID              string
	Title           string
	Category        model.SectionCategory
	DurationSeconds int
	Entries         []FlatEntry
	Skipped         []SkippedRef

	questions map[string]*model.Question
}

// Question returns a section-owned question by id.
func (sp *SectionPlan) Question(id string) (*model.Question, bool) {
	q, ok := sp.questions[id]
	return q, ok
}

// Compile flattens every section of a definition into a Plan. Unresolvable
// entries are skipped per section (recorded in Skipped); structural problems
// that make the whole definition unusable return ErrMalformedDefinition.
func Compile(def *model.AssessmentDefinition) (*Plan, error) {
	if len(def.Sections) == 0 {
		return nil, fmt.Errorf("%w: no sections", ErrMalformedDefinition)
	}

	res := NewResolver(def)
	plan := &Plan{
		AssessmentID: def.ID,
		Title:        def.Title,
		Sections:     make([]SectionPlan, 0, len(def.Sections)),
	}

	seen := make(map[string]bool, len(def.Sections))
	for _, sec := range def.Sections {
		if seen[sec.ID] {
			return nil, fmt.Errorf("%w: duplicate section id %q", ErrMalformedDefinition, sec.ID)
		}
		seen[sec.ID] = true
		if sec.DurationSeconds <= 0 {
			return nil, fmt.Errorf("%w: section %q has non-positive duration", ErrMalformedDefinition, sec.ID)
		}

		entries, skipped := Flatten(sec, res)
		sp := SectionPlan{
			ID:              sec.ID,
			Title:           sec.Title,
			Category:        sec.Category,
			DurationSeconds: sec.DurationSeconds,
			Entries:         entries,
			Skipped:         skipped,
			questions:       make(map[string]*model.Question, len(entries)),
		}
		for _, e := range entries {
			if e.GroupID != "" {
				g, _ := res.Group(e.GroupID)
				for i := range g.SubQuestions {
					if g.SubQuestions[i].ID == e.QuestionID {
						sp.questions[e.QuestionID] = &g.SubQuestions[i]
						break
					}
				}
				continue
			}
			q, _ := res.Question(e.QuestionID)
			sp.questions[e.QuestionID] = q
		}
		plan.Sections = append(plan.Sections, sp)
	}

	return plan, nil
}

// SectionByID returns the compiled section with the given id.
func (p *Plan) SectionByID(id string) (*SectionPlan, bool) {
	for i := range p.Sections {
		if p.Sections[i].ID == id {
			return &p.Sections[i], true
		}
	}
	return nil, false
}

// Paper builds the candidate-facing sanitized view of the plan: flattened
// entries with prompts and options, no answer keys or solutions.
func (p *Plan) Paper(res Resolver) model.Paper {
	paper := model.Paper{
		AssessmentID: p.AssessmentID,
		Title:        p.Title,
		Sections:     make([]model.PaperSection, 0, len(p.Sections)),
	}
	for i := range p.Sections {
		sp := &p.Sections[i]
		ps := model.PaperSection{
			ID:              sp.ID,
			Category:        sp.Category,
			Title:           sp.Title,
			DurationSeconds: sp.DurationSeconds,
			Entries:         make([]model.PaperEntry, 0, len(sp.Entries)),
		}
		paper.TotalDurationSeconds += sp.DurationSeconds
		for _, e := range sp.Entries {
			q := sp.questions[e.QuestionID]
			pe := model.PaperEntry{
				DisplayIndex: e.DisplayIndex,
				QuestionID:   e.QuestionID,
				GroupID:      e.GroupID,
				Kind:         q.Kind,
				Prompt:       q.Prompt,
				Options:      q.Options,
			}
			if e.GroupID != "" {
				if g, ok := res.Group(e.GroupID); ok {
					pe.CommonContent = g.CommonContent
				}
			}
			ps.Entries = append(ps.Entries, pe)
		}
		paper.Sections = append(paper.Sections, ps)
	}
	return paper
}
