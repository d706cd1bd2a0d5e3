package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/unifreelancer/academy/internal/course"
)

func fiveLessonSequence() *course.Sequence {
	return course.Flatten(&course.Course{ID: "c", Modules: []*course.Module{
		{ID: "m1", Lessons: []*course.Lesson{video("l0"), video("l1")}},
		{ID: "m2", Lessons: []*course.Lesson{}},
		{ID: "m3", Lessons: []*course.Lesson{video("l2"), video("l3"), video("l4")}},
	}})
}

func setFromMask(seq *course.Sequence, mask int) LessonSet {
	set := NewLessonSet()
	for i := 0; i < seq.Len(); i++ {
		if mask&(1<<i) != 0 {
			set.Add(seq.At(i).Lesson.ID)
		}
	}
	return set
}

func TestIsLessonAccessible(t *testing.T) {
	seq := fiveLessonSequence()

	assert.True(t, IsLessonAccessible(seq, NewLessonSet(), "l0"))
	assert.False(t, IsLessonAccessible(seq, NewLessonSet(), "l1"))
	assert.False(t, IsLessonAccessible(seq, NewLessonSet("l0", "l1", "l2", "l3", "l4"), "unknown"))
	assert.True(t, IsLessonAccessible(seq, NewLessonSet("l0", "l1"), "l2"), "unlocking crosses empty modules")
	assert.False(t, IsLessonAccessible(seq, NewLessonSet("l0", "l2", "l3"), "l4"), "no skipping")
}

func TestIsLessonAccessibleMatchesPrefixRule(t *testing.T) {
	seq := fiveLessonSequence()
	for mask := 0; mask < 1<<seq.Len(); mask++ {
		completed := setFromMask(seq, mask)
		for i := 0; i < seq.Len(); i++ {
			prefix := (1 << i) - 1
			want := mask&prefix == prefix
			assert.Equal(t, want, IsLessonAccessible(seq, completed, seq.At(i).Lesson.ID), "mask %05b lesson %d", mask, i)
		}
	}
}

func TestIsLessonAccessibleMonotonic(t *testing.T) {
	seq := fiveLessonSequence()
	full := 1<<seq.Len() - 1
	for mask := 0; mask <= full; mask++ {
		for super := mask; super <= full; super++ {
			if super&mask != mask {
				continue
			}
			before, after := setFromMask(seq, mask), setFromMask(seq, super)
			for i := 0; i < seq.Len(); i++ {
				id := seq.At(i).Lesson.ID
				if IsLessonAccessible(seq, before, id) {
					assert.True(t, IsLessonAccessible(seq, after, id), "lesson %s relocked going %05b -> %05b", id, mask, super)
				}
			}
		}
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 100, percentage(0, 0))
	assert.Equal(t, 33, percentage(1, 3))
	assert.Equal(t, 67, percentage(2, 3))
	assert.Equal(t, 50, percentage(1, 2))
	assert.Equal(t, 13, percentage(1, 8), "12.5 rounds half away from zero")
}

func TestCompletedInOrderIgnoresStaleLessons(t *testing.T) {
	seq := fiveLessonSequence()
	assert.Equal(t, []string{"l0", "l3"}, completedInOrder(seq, NewLessonSet("l3", "removed", "l0")))
}
