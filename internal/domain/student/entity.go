// Package student содержит доменную модель ученика для рейтинга класса.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package student

import (
	"strconv"
	"strings"

	"github.com/mathclass/rating-hub/internal/domain/rating"
	"github.com/mathclass/rating-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student - ученик в рейтинге класса.
type Student struct {
	// ID - стабильный уникальный идентификатор.
	ID int

	// Name - отображаемое имя.
	Name string

	// Avatar - эмодзи или короткий глиф.
	Avatar string

	// Scores - три составляющие рейтинга, каждая в [0, 100].
	Scores rating.Scores

	// Achievements - упорядоченные ссылки на id достижений из каталога.
	Achievements []string

	// Level - уровень, приходит из удалённого источника.
	Level int

	// ReportedRating - total_rating, сохранённый на сервере, если сервер его прислал.
	// Ранжирование всегда использует TotalRating(); это поле только для сверки.
	ReportedRating *int
}

// TotalRating пересчитывает рейтинг из трёх оценок.
func (s Student) TotalRating() int {
	return rating.TotalRating(s.Scores)
}

// RatingDrift возвращает разницу между серверным и пересчитанным рейтингом.
// ok=false, если сервер рейтинг не присылал.
func (s Student) RatingDrift() (drift int, ok bool) {
	if s.ReportedRating == nil {
		return 0, false
	}
	return *s.ReportedRating - s.TotalRating(), true
}

// WithScore возвращает копию ученика с одной заменённой оценкой.
func (s Student) WithScore(c rating.Category, v rating.Score) Student {
	out := s.Clone()
	out.Scores = out.Scores.With(c, v)
	return out
}

// HasAchievement проверяет наличие ссылки на достижение.
func (s Student) HasAchievement(id string) bool {
	for _, a := range s.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// Clone делает глубокую копию, чтобы хранилище не делило срезы с вызывающим.
func (s Student) Clone() Student {
	out := s
	if s.Achievements != nil {
		out.Achievements = make([]string, len(s.Achievements))
		copy(out.Achievements, s.Achievements)
	}
	if s.ReportedRating != nil {
		r := *s.ReportedRating
		out.ReportedRating = &r
	}
	return out
}

// Validate проверяет инварианты записи перед записью на сервере.
func (s Student) Validate() error {
	if s.ID <= 0 {
		return shared.ErrInvalidStudentID
	}
	if !s.Scores.IsValid() {
		return shared.ErrScoreOutOfRange
	}
	return nil
}

// DisplayName возвращает имя без лишних пробелов, либо "#id" для пустого имени.
func (s Student) DisplayName() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return "#" + strconv.Itoa(s.ID)
}
