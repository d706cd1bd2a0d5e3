package course

import "fmt"

// Position where a lesson sits in the flattened course track
type Position struct {
	Index  int
	Module *Module
	Lesson *Lesson
}

// Sequence canonical lesson order: modules in array order, then lessons in array order
type Sequence struct {
	positions []Position
	index     map[string]int
}

// Flatten computes the lesson sequence of c
func Flatten(c *Course) *Sequence {
	seq := &Sequence{index: make(map[string]int)}
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			if _, dup := seq.index[l.ID]; dup {
				continue
			}
			seq.index[l.ID] = len(seq.positions)
			seq.positions = append(seq.positions, Position{Index: len(seq.positions), Module: m, Lesson: l})
		}
	}
	return seq
}

// Len number of lessons in the course
func (s *Sequence) Len() int {
	return len(s.positions)
}

// Lookup finds a lesson by ID
func (s *Sequence) Lookup(lessonID string) (Position, bool) {
	i, ok := s.index[lessonID]
	if !ok {
		return Position{}, false
	}
	return s.positions[i], true
}

// At returns the i-th lesson
func (s *Sequence) At(i int) Position {
	return s.positions[i]
}

// First returns the first lesson, false for an empty course
func (s *Sequence) First() (Position, bool) {
	if len(s.positions) == 0 {
		return Position{}, false
	}
	return s.positions[0], true
}

// LessonIDs lesson IDs in sequence order
func (s *Sequence) LessonIDs() []string {
	ids := make([]string, len(s.positions))
	for i, p := range s.positions {
		ids[i] = p.Lesson.ID
	}
	return ids
}

// Validate checks the structural rules of a course document
func Validate(c *Course) error {
	if c == nil {
		return fmt.Errorf("course is empty")
	}
	if c.ID == "" {
		return fmt.Errorf("course has no id")
	}
	seen := make(map[string]bool)
	for _, m := range c.Modules {
		if m == nil || m.ID == "" {
			return fmt.Errorf("course %s: module without id", c.ID)
		}
		for _, l := range m.Lessons {
			if l == nil || l.ID == "" {
				return fmt.Errorf("course %s: lesson without id in module %s", c.ID, m.ID)
			}
			if seen[l.ID] {
				return fmt.Errorf("course %s: duplicate lesson id %s", c.ID, l.ID)
			}
			if l.Content == nil {
				return fmt.Errorf("course %s: lesson %s has no content", c.ID, l.ID)
			}
			if quiz, ok := l.Content.(*QuizContent); ok {
				if err := validateQuestions(quiz.Questions, quiz.PassingScore); err != nil {
					return fmt.Errorf("course %s: lesson %s: %w", c.ID, l.ID, err)
				}
			}
			seen[l.ID] = true
		}
	}
	if c.FinalTest != nil {
		if err := validateQuestions(c.FinalTest.Questions, c.FinalTest.PassingScore); err != nil {
			return fmt.Errorf("course %s: final test: %w", c.ID, err)
		}
	}
	return nil
}

// validateQuestions passing score is a percentage, every question must be present
func validateQuestions(questions []*Question, passingScore int) error {
	if passingScore < 0 || passingScore > 100 {
		return fmt.Errorf("passing score %d out of range 0..100", passingScore)
	}
	for i, q := range questions {
		if q == nil {
			return fmt.Errorf("question %d is empty", i)
		}
	}
	return nil
}
