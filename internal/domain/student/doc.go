// Package student содержит доменную модель ученика.
//
// Ученик оценивается по трём направлениям (домашние задания, активность,
// ответы на уроке), каждое - целое в [0, 100]. Итоговый рейтинг не хранится
// авторитетно: TotalRating() всегда пересчитывает его из трёх оценок, а
// серверное значение, если оно пришло, лежит в ReportedRating для сверки.
//
// Пакет определяет интерфейсы (реализации в infrastructure):
//
//   - Repository: чтение и атомарное обновление оценок на стороне rating API
//   - Cache: кеширование готового списка учеников
//
// Пример:
//
//	s := student.Student{ID: 1, Name: "Илья", Scores: rating.Scores{Homework: 85, Activity: 78, Answers: 92}}
//	s.TotalRating() // 85
//	s = s.WithScore(rating.CategoryHomework, rating.Clamp(s.Scores.Homework, 5))
package student
