package progress

import (
	"math"

	"github.com/unifreelancer/academy/internal/course"
)

// IsLessonAccessible a lesson is unlocked iff every lesson before it in seq is completed.
// The first lesson is always unlocked, unknown lessons never are.
func IsLessonAccessible(seq *course.Sequence, completed LessonSet, lessonID string) bool {
	pos, ok := seq.Lookup(lessonID)
	if !ok {
		return false
	}
	for i := 0; i < pos.Index; i++ {
		if !completed.Has(seq.At(i).Lesson.ID) {
			return false
		}
	}
	return true
}

// completedInOrder lessons of seq present in completed, in sequence order
func completedInOrder(seq *course.Sequence, completed LessonSet) []string {
	ids := make([]string, 0, len(completed))
	for _, id := range seq.LessonIDs() {
		if completed.Has(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

func allCompleted(seq *course.Sequence, completed LessonSet) bool {
	for _, id := range seq.LessonIDs() {
		if !completed.Has(id) {
			return false
		}
	}
	return true
}

// percentage rounds half away from zero, an empty course counts as done
func percentage(part, total int) int {
	if total == 0 {
		return 100
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}
