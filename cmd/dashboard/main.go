// Package main - консольный вариант дашборда: печатает рейтинг класса,
// бейджи и домашние задания.
//
// Если задан RATING_API_URL, данные загружаются с сервера, иначе используется
// демонстрационный класс.
//
//	dashboard                              # таблица рейтинга
//	dashboard -student 3 -category homework -delta 5
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/mathclass/rating-hub/config"
	"github.com/mathclass/rating-hub/internal/application/dashboard"
	"github.com/mathclass/rating-hub/internal/application/roster"
	"github.com/mathclass/rating-hub/internal/domain/rating"
	"github.com/mathclass/rating-hub/internal/domain/shared"
	"github.com/mathclass/rating-hub/internal/infrastructure/external/ratingapi"
	"github.com/mathclass/rating-hub/internal/infrastructure/messaging"
	"github.com/mathclass/rating-hub/pkg/logger"
	"github.com/mathclass/rating-hub/pkg/timeutil"
)

type flags struct {
	studentID int
	category  string
	delta     int
	homework  bool
}

func main() {
	var f flags
	flag.IntVar(&f.studentID, "student", 0, "student id to update")
	flag.StringVar(&f.category, "category", "homework", "score category: homework, activity or answers")
	flag.IntVar(&f.delta, "delta", 5, "points to add (negative to subtract)")
	flag.BoolVar(&f.homework, "homework", false, "print homework progress")
	flag.Parse()

	if err := run(f, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard: %v\n", err)
		os.Exit(1)
	}
}

func run(f flags, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output: os.Stderr,
		Level:  logger.ParseLevel(cfg.Log.Level),
	}).With(logger.String("service", "dashboard"))

	bus := messaging.NewInMemoryEventBus(messaging.DefaultInMemoryEventBusConfig())
	defer bus.Close()
	_ = bus.SubscribeAll(func(e shared.Event) error {
		log.Debug("event", logger.String("type", string(e.EventType())), logger.Any("payload", e.Payload()))
		return nil
	})

	opts := dashboard.Options{Bus: bus, Logger: log, Clock: timeutil.SystemClock()}
	if cfg.Rating.APIURL != "" {
		clientCfg := ratingapi.DefaultClientConfig(cfg.Rating.APIURL)
		clientCfg.Timeout = cfg.Rating.Timeout
		clientCfg.Logger = log
		client, err := ratingapi.NewClient(clientCfg)
		if err != nil {
			return err
		}
		opts.Remote = client
	} else {
		log.Info("RATING_API_URL is not set, using demo class")
	}

	d := dashboard.New(opts)
	if err := d.Init(ctx); err != nil {
		// Print whatever did load.
		log.Warn("dashboard loaded with errors", logger.Err(err))
	}

	if f.studentID != 0 {
		category, err := rating.ParseCategory(f.category)
		if err != nil {
			return err
		}
		d.Roster().UpdatePoints(ctx, f.studentID, category, f.delta)
	}

	printStandings(out, d)
	if f.homework {
		printHomework(out, d)
	}
	return nil
}

func printStandings(out io.Writer, d *dashboard.Dashboard) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tУченик\tДЗ\tАктивность\tОтветы\tРейтинг\tБейджи")
	for _, s := range d.Roster().Standings() {
		badges := make([]string, 0, len(s.Student.Achievements))
		for _, a := range d.BadgesFor(s.Student.ID) {
			badges = append(badges, a.Icon)
		}

		sc := s.Student.Scores
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			positionLabel(s), s.Student.DisplayName(),
			sc.Homework.Int(), sc.Activity.Int(), sc.Answers.Int(),
			s.Rating, strings.Join(badges, " "),
		)
	}
	_ = w.Flush()
}

// positionLabel shows a medal for the podium and the plain position below it.
func positionLabel(s roster.Standing) string {
	if s.Position >= 1 && s.Position <= 3 {
		return s.Medal
	}
	return strconv.Itoa(s.Position)
}

func printHomework(out io.Writer, d *dashboard.Dashboard) {
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tЗадание\tСрок\tСдано\tПроверено")
	for _, hw := range d.Homework().List() {
		st := d.Homework().Stats(hw.ID)
		fmt.Fprintf(w, "%d\t%s\t%s\t%d/%d\t%d\n",
			hw.ID, hw.Title, timeutil.FormatRussian(hw.DueDate),
			st.Submitted, st.Total, st.Graded,
		)
	}
	_ = w.Flush()
}
