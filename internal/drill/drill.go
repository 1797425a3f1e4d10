// Package drill is the line-mode trainer: the same lesson session as the
// TUI, read from and written to plain streams.
package drill

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/abhisek/lingo/internal/api"
	"github.com/abhisek/lingo/internal/explain"
	"github.com/abhisek/lingo/internal/mastery"
	"github.com/abhisek/lingo/internal/session"
	"github.com/abhisek/lingo/internal/ui/components"
	"github.com/abhisek/lingo/internal/ui/theme"
)

// quitCommand leaves the lesson when typed as an answer.
const quitCommand = ":q"

// DefaultExplainWait is how long a wrong answer holds the next prompt back
// for its explanation. Slower explanations are printed when they arrive.
const DefaultExplainWait = 3 * time.Second

// ErrAuthRequired is returned when the server rejected the stored token.
var ErrAuthRequired = fmt.Errorf("session expired: %w", api.ErrUnauthorized)

// Options configures a drill.
type Options struct {
	LessonID  int
	Loader    session.Loader
	Recorder  session.Recorder
	Explainer session.Dispatcher // nil turns explanations off
	Runs      session.RunJournal // optional
	Logger    *zap.Logger

	In    io.Reader
	Out   io.Writer
	Plain bool // no colors
	Width int  // wrap width; 0 means 80

	// ExplainWait bounds how long a wrong answer waits for its explanation;
	// 0 means DefaultExplainWait.
	ExplainWait time.Duration
}

// Result summarizes a finished drill.
type Result struct {
	Outcome  session.NoticeKind // zero when the learner quit
	Answered int
	Correct  int
}

type explanation struct {
	seq    uint64
	result explain.Result
}

type drill struct {
	opts    Options
	ctrl    *session.Controller
	in      *bufio.Scanner
	out     io.Writer
	notices chan session.Notice
	explain chan explanation
	res     Result

	outMu sync.Mutex

	// late is the check seq whose explanation timed out but may still be
	// printed while its verdict is on screen. Guarded by lateMu.
	lateMu sync.Mutex
	late   uint64
}

// Run drives one lesson to its end, or until the input closes or the
// learner types :q.
func Run(ctx context.Context, opts Options) (Result, error) {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.ExplainWait <= 0 {
		opts.ExplainWait = DefaultExplainWait
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	d := &drill{
		opts:    opts,
		in:      bufio.NewScanner(opts.In),
		out:     opts.Out,
		notices: make(chan session.Notice, 16),
		explain: make(chan explanation, 4),
	}
	copts := []session.ControllerOption{
		session.WithLogger(opts.Logger),
		session.WithHooks(session.Hooks{
			OnNotice: func(n session.Notice) {
				select {
				case d.notices <- n:
				default:
				}
			},
			OnExplanation: func(seq uint64, r explain.Result) {
				if d.printLate(seq, r) {
					return
				}
				select {
				case d.explain <- explanation{seq: seq, result: r}:
				default:
				}
			},
		}),
	}
	if opts.Runs != nil {
		copts = append(copts, session.WithRunJournal(opts.Runs))
	}
	d.ctrl = session.NewController(opts.Loader, opts.Recorder, opts.Explainer, copts...)

	err := d.run(ctx)
	return d.res, err
}

func (d *drill) run(ctx context.Context) error {
	d.println(d.paint(theme.Hint, "Loading lesson…"))
	d.ctrl.StartLesson(ctx, d.opts.LessonID)
	if done, err := d.handleNotices(ctx); done || err != nil {
		return err
	}

	for {
		v := d.ctrl.View()
		if v.Sentence == nil {
			return nil
		}

		d.printSentence(v)
		answer, ok := d.read("> ")
		if !ok || strings.TrimSpace(answer) == quitCommand {
			d.ctrl.Exit(ctx)
			d.println(d.paint(theme.Hint, "Lesson left. Your progress so far is saved."))
			return nil
		}

		res, err := d.ctrl.CheckAnswer(ctx, answer)
		if err != nil {
			return fmt.Errorf("check answer: %w", err)
		}
		d.res.Answered++
		if res.Correct {
			d.res.Correct++
		}
		d.printVerdict(res)
		if res.Explain && d.opts.Explainer != nil {
			d.printExplanation(ctx, res.Seq)
		}

		_, ok = d.read(d.paint(theme.Hint, "Press Enter to continue "))
		d.setLate(0)
		if !ok {
			d.ctrl.Exit(ctx)
			return nil
		}
		if _, err := d.ctrl.NextSentence(ctx); err != nil {
			return fmt.Errorf("next sentence: %w", err)
		}
		if done, err := d.handleNotices(ctx); done || err != nil {
			return err
		}
	}
}

// handleNotices prints pending notices and reports whether the lesson is
// over.
func (d *drill) handleNotices(ctx context.Context) (bool, error) {
	for {
		var n session.Notice
		select {
		case n = <-d.notices:
		default:
			return false, nil
		}

		switch {
		case n.Kind == session.NoticeReplayConfirm:
			d.println(d.paint(theme.Notice, n.Message()))
			answer, ok := d.read("[y/N] ")
			accept := ok && strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y")
			if err := d.ctrl.ConfirmReplay(ctx, accept); err != nil {
				return true, fmt.Errorf("confirm replay: %w", err)
			}
			if !accept {
				return true, nil
			}
		case n.Kind == session.NoticeLessonComplete:
			d.res.Outcome = n.Kind
			d.println("")
			d.println(d.paint(theme.Correct, n.Message()))
			return true, nil
		case n.Kind == session.NoticeAuthRequired:
			d.res.Outcome = n.Kind
			d.println(d.paint(theme.Incorrect, n.Message()))
			return true, ErrAuthRequired
		case n.Blocking():
			d.res.Outcome = n.Kind
			d.println(d.paint(theme.Incorrect, n.Message()))
			return true, nil
		default:
			d.println(d.paint(theme.Notice, n.Message()))
		}
	}
}

func (d *drill) printSentence(v session.View) {
	d.println("")
	header := fmt.Sprintf("%s %d/%d", components.ProgressBar{
		Current: v.Progress.Current,
		Total:   v.Progress.Total,
		Width:   20,
	}.View(), v.Progress.Current, v.Progress.Total)
	if v.Replay {
		header += "  " + d.paint(theme.Notice, "Replay")
	}
	status := statusLabel(v.Status)
	gap := max(d.opts.Width-lipgloss.Width(header)-runewidth.StringWidth(status), 2)
	d.println(header + strings.Repeat(" ", gap) + d.paint(theme.Hint, status))
	d.println(d.paint(theme.Prompt, v.Sentence.Prompt))
}

func statusLabel(s mastery.Status) string {
	return s.Icon() + " " + s.Label()
}

func (d *drill) printVerdict(res session.CheckResult) {
	if res.Correct {
		d.println(d.paint(theme.Correct, "✓ Correct!"))
	} else {
		d.println(d.paint(theme.Incorrect, "✗ Not quite.") + " Correct answer: " + res.Sentence.Answer)
	}
	if res.Sentence.Transcription != "" {
		d.println(d.paint(theme.Hint, res.Sentence.Transcription))
	}
}

// printExplanation waits for the explanation of check seq and prints it.
func (d *drill) printExplanation(ctx context.Context, seq uint64) {
	d.println(d.paint(theme.Hint, "Asking for an explanation…"))
	timeout := time.NewTimer(d.opts.ExplainWait)
	defer timeout.Stop()
	for {
		select {
		case e := <-d.explain:
			if e.seq != seq {
				continue
			}
			if e.result.Visible() {
				d.println(runewidth.Wrap(e.result.Text, d.opts.Width))
			}
			return
		case <-timeout.C:
			d.setLate(seq)
			// It may have been queued just before the wait ended.
			for {
				select {
				case e := <-d.explain:
					if d.printLate(e.seq, e.result) {
						return
					}
					continue
				default:
				}
				break
			}
			d.println(d.paint(theme.Hint, "The explanation will appear when it is ready."))
			return
		case <-ctx.Done():
			return
		}
	}
}

func (d *drill) setLate(seq uint64) {
	d.lateMu.Lock()
	d.late = seq
	d.lateMu.Unlock()
}

// printLate prints r if it belongs to the check whose explanation timed out
// and reports whether it did.
func (d *drill) printLate(seq uint64, r explain.Result) bool {
	d.lateMu.Lock()
	defer d.lateMu.Unlock()
	if d.late == 0 || d.late != seq {
		return false
	}
	d.late = 0
	if r.Visible() {
		d.println("\n" + runewidth.Wrap(r.Text, d.opts.Width))
	}
	return true
}

func (d *drill) read(prompt string) (string, bool) {
	d.print(prompt)
	if !d.in.Scan() {
		d.println("")
		return "", false
	}
	return d.in.Text(), true
}

func (d *drill) print(s string) {
	d.outMu.Lock()
	defer d.outMu.Unlock()
	fmt.Fprint(d.out, s)
}

func (d *drill) println(s string) {
	d.print(s + "\n")
}

func (d *drill) paint(style lipgloss.Style, s string) string {
	if d.opts.Plain {
		return s
	}
	return style.Render(s)
}
