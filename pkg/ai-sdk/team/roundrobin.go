// Package team schedules a fixed set of participants over a shared transcript.
package team

import (
	"context"
	"fmt"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
	"github.com/rs/zerolog/log"
)

const DefaultMaxTurns = 6

// Participant answers one turn of a shared transcript. Tool exchanges it makes
// while answering are appended by the participant itself; the returned message
// turn is recorded by the team.
type Participant interface {
	Name() string
	Respond(ctx context.Context, transcript *types.Transcript) (types.Turn, error)
}

// TerminationCondition is consulted after every recorded message turn
type TerminationCondition func(turn types.Turn) bool

type StopReason string

const (
	StopReasonMaxTurns   StopReason = "max_turns"
	StopReasonTerminated StopReason = "terminated"
	StopReasonFailed     StopReason = "failed"
	StopReasonNotStarted StopReason = "not_started"
)

// Result is the outcome of one run. Transcript holds every turn recorded, including
// when the run failed part way.
type Result struct {
	Transcript []types.Turn `json:"transcript"`
	Turns      int          `json:"turns"`
	StopReason StopReason   `json:"stop_reason"`
}

type Hooks struct {
	OnTurnStart    func(ctx context.Context, turn int, participant string)
	OnTurnComplete func(ctx context.Context, turn int, recorded types.Turn)
	OnTurnFailed   func(ctx context.Context, turn int, participant string, err error)
}

// RoundRobin invokes its participants in a fixed cyclic order until the turn
// cap is reached, a reply is marked Stop or the termination condition holds. It never inspects the
// content of turns itself.
type RoundRobin struct {
	participants []Participant
	maxTurns     int
	termination  TerminationCondition
	hooks        Hooks
}

type Option func(*RoundRobin)

func WithParticipants(participants ...Participant) Option {
	return func(r *RoundRobin) {
		r.participants = append(r.participants, participants...)
	}
}

func WithMaxTurns(turns int) Option {
	return func(r *RoundRobin) {
		r.maxTurns = turns
	}
}

func WithTermination(condition TerminationCondition) Option {
	return func(r *RoundRobin) {
		r.termination = condition
	}
}

func WithHooks(hooks Hooks) Option {
	return func(r *RoundRobin) {
		r.hooks = hooks
	}
}

func NewRoundRobin(opts ...Option) (*RoundRobin, error) {
	r := &RoundRobin{
		maxTurns: DefaultMaxTurns,
	}

	for _, opt := range opts {
		opt(r)
	}

	if len(r.participants) == 0 {
		return nil, types.ErrNoParticipants
	}

	if r.maxTurns <= 0 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidMaxTurns, r.maxTurns)
	}

	return r, nil
}

func (r *RoundRobin) MaxTurns() int {
	return r.maxTurns
}

func (r *RoundRobin) Participants() []string {
	names := make([]string, len(r.participants))
	for i, p := range r.participants {
		names[i] = p.Name()
	}
	return names
}

// Run seeds a fresh transcript with task and cycles through the participants.
// A participant error aborts the run; the partial result is returned with it.
func (r *RoundRobin) Run(ctx context.Context, task string) (Result, error) {
	transcript := types.NewTranscript()
	transcript.Append(types.TaskTurn(task))

	result := Result{StopReason: StopReasonNotStarted}

	for turn := 0; turn < r.maxTurns; turn++ {
		participant := r.participants[turn%len(r.participants)]

		r.onTurnStart(ctx, turn, participant.Name())

		reply, err := participant.Respond(ctx, transcript)
		if err != nil {
			r.onTurnFailed(ctx, turn, participant.Name(), err)

			result.Transcript = transcript.Turns()
			result.StopReason = StopReasonFailed

			return result, fmt.Errorf("turn %d (%s): %w", turn+1, participant.Name(), err)
		}

		reply.Speaker = participant.Name()
		reply.Kind = types.TurnKindMessage
		transcript.Append(reply)
		result.Turns++

		r.onTurnComplete(ctx, turn, reply)

		if reply.Stop || (r.termination != nil && r.termination(reply)) {
			result.Transcript = transcript.Turns()
			result.StopReason = StopReasonTerminated
			return result, nil
		}
	}

	result.Transcript = transcript.Turns()
	result.StopReason = StopReasonMaxTurns

	return result, nil
}

func (r *RoundRobin) onTurnStart(ctx context.Context, turn int, participant string) {
	log.Debug().Int("turn", turn+1).Str("participant", participant).Msg("Turn started")

	if r.hooks.OnTurnStart != nil {
		r.hooks.OnTurnStart(ctx, turn, participant)
	}
}

func (r *RoundRobin) onTurnComplete(ctx context.Context, turn int, recorded types.Turn) {
	if r.hooks.OnTurnComplete != nil {
		r.hooks.OnTurnComplete(ctx, turn, recorded)
	}
}

func (r *RoundRobin) onTurnFailed(ctx context.Context, turn int, participant string, err error) {
	if r.hooks.OnTurnFailed != nil {
		r.hooks.OnTurnFailed(ctx, turn, participant, err)
	}
}

// SpeakerSaid terminates once the named speaker produced a turn accepted by match
func SpeakerSaid(speaker string, match func(content string) bool) TerminationCondition {
	return func(turn types.Turn) bool {
		return turn.Speaker == speaker && match(turn.Content)
	}
}
