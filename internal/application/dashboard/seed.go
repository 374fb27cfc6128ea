package dashboard

import (
	"time"

	"github.com/mathclass/rating-hub/internal/domain/achievement"
	"github.com/mathclass/rating-hub/internal/domain/homework"
	"github.com/mathclass/rating-hub/internal/domain/rating"
	"github.com/mathclass/rating-hub/internal/domain/student"
)

// SeedStudents is the demo class used when no remote endpoint is configured.
func SeedStudents() []student.Student {
	return []student.Student{
		{
			ID: 1, Name: "Илья", Avatar: "👨‍🎓",
			Scores:       rating.Scores{Homework: 85, Activity: 78, Answers: 92},
			Achievements: []string{achievement.FirstPlace, achievement.HomeworkMaster},
			Level:        5,
		},
		{
			ID: 2, Name: "Даша", Avatar: "👩‍🎓",
			Scores:       rating.Scores{Homework: 92, Activity: 88, Answers: 85},
			Achievements: []string{achievement.HomeworkMaster, achievement.ActiveStudent},
			Level:        6,
		},
		{
			ID: 3, Name: "Вика", Avatar: "👧",
			Scores:       rating.Scores{Homework: 76, Activity: 95, Answers: 80},
			Achievements: []string{achievement.ActiveStudent},
			Level:        4,
		},
		{
			ID: 4, Name: "Настя", Avatar: "👩",
			Scores:       rating.Scores{Homework: 88, Activity: 82, Answers: 90},
			Achievements: []string{achievement.RisingStar},
			Level:        5,
		},
	}
}

// SeedHomework returns one open assignment with two pending submissions.
func SeedHomework(now time.Time) []homework.Homework {
	hw := homework.Draft{
		Title:       "Дроби и проценты",
		Description: "Учебник, стр. 45, № 1-10",
		Difficulty:  homework.DifficultyMedium,
		Points:      homework.DefaultPoints,
	}.Build(1, now.Add(-2*24*time.Hour))

	hw.Submit(1, "Решено в тетради", now.Add(-24*time.Hour))
	hw.Submit(2, "Все задачи, фото приложено", now.Add(-12*time.Hour))

	return []homework.Homework{hw}
}
