package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oggyb/matchbot/internal/conversation"
	"github.com/oggyb/matchbot/internal/db"
	svcErr "github.com/oggyb/matchbot/internal/errors"
	"github.com/oggyb/matchbot/internal/repository"
)

func (d *Dispatcher) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if !msg.IsCommand() {
		return d.relayText(ctx, chatID, msg.Text)
	}
	if msg.Command() == "skip" {
		return d.cmdSkip(ctx, chatID)
	}
	// any other command abandons a pending block reason
	d.dropReasonPrompt(ctx, chatID)

	switch msg.Command() {
	case "start":
		return d.cmdStart(ctx, chatID, firstName(msg.From))
	case "profile":
		return d.cmdProfile(ctx, chatID, firstName(msg.From), msg.CommandArguments())
	case "next":
		return d.showNext(ctx, chatID)
	case "matches":
		return d.cmdMatches(ctx, chatID)
	case "history":
		return d.cmdHistory(ctx, chatID)
	case "exit":
		d.setState(ctx, chatID, conversation.Idle{})
		d.reply(chatID, textExitChat)
		return nil
	case "blocked":
		return d.cmdBlocked(ctx, chatID)
	case "unblock":
		return d.cmdUnblock(ctx, chatID, msg.CommandArguments())
	case "settings":
		return d.cmdSettings(ctx, chatID, msg.CommandArguments())
	default:
		d.reply(chatID, textUnknown)
		return nil
	}
}

func (d *Dispatcher) cmdStart(ctx context.Context, chatID int64, name string) error {
	p, created, err := d.core.Profiles.EnsureProfile(ctx, externalID(chatID), name)
	if err != nil {
		return err
	}
	if created {
		d.log.Info("placeholder profile created", "profile_id", p.ID, "chat_id", chatID)
	}
	d.setState(ctx, chatID, conversation.Idle{})

	if !p.Completed {
		d.reply(chatID, textRegister)
		return nil
	}
	d.reply(chatID, textWelcomeBack)
	return nil
}

// cmdProfile handles "/profile <age> <gender> <orientation> <city> [bio]".
func (d *Dispatcher) cmdProfile(ctx context.Context, chatID int64, name, args string) error {
	fields := strings.Fields(args)
	if len(fields) < 4 {
		d.reply(chatID, textRegister)
		return nil
	}
	age, err := strconv.Atoi(fields[0])
	if err != nil {
		d.reply(chatID, "⚠️ Age must be a number.")
		return nil
	}
	gender, ok := db.ParseGender(fields[1])
	if !ok {
		d.reply(chatID, "⚠️ Gender must be male, female or other.")
		return nil
	}
	orientation, ok := db.ParseOrientation(fields[2])
	if !ok {
		d.reply(chatID, "⚠️ Orientation must be hetero, homo, bi or other.")
		return nil
	}

	p, _, err := d.core.Profiles.EnsureProfile(ctx, externalID(chatID), name)
	if err != nil {
		return err
	}
	_, err = d.core.Profiles.CompleteProfile(ctx, p.ID, repository.ProfileDetails{
		DisplayName: name,
		Age:         age,
		Gender:      gender,
		Orientation: orientation,
		City:        fields[3],
		Bio:         strings.Join(fields[4:], " "),
	})
	if err != nil {
		return err
	}
	d.reply(chatID, "✅ Profile saved! Send /next to start meeting people.")
	return nil
}

// showNext sends the next candidate card, or a notice when nobody is left.
func (d *Dispatcher) showNext(ctx context.Context, chatID int64) error {
	me, err := d.viewer(ctx, chatID)
	if err != nil {
		return err
	}
	candidate, err := d.core.Swipe.NextCandidate(ctx, me.ID)
	if err != nil {
		return err
	}
	if candidate == nil {
		d.setState(ctx, chatID, conversation.Idle{})
		d.reply(chatID, textNoMore)
		return nil
	}

	d.setState(ctx, chatID, conversation.AwaitingCandidateDecision{CandidateID: candidate.ID})
	card := tgbotapi.NewMessage(chatID, renderCandidate(candidate))
	card.ReplyMarkup = candidateKeyboard(candidate.ID)
	d.send(card)
	return nil
}

func (d *Dispatcher) cmdMatches(ctx context.Context, chatID int64) error {
	me, err := d.viewer(ctx, chatID)
	if err != nil {
		return err
	}
	matches, err := d.core.Matches.ListMatches(ctx, me.ID)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		d.reply(chatID, textNoMatches)
		return nil
	}

	ids := make([]uint64, 0, len(matches))
	for i := range matches {
		if other, ok := matches[i].Other(me.ID); ok {
			ids = append(ids, other)
		}
	}
	people, err := d.core.Profiles.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}

	entries := make([]matchEntry, 0, len(matches))
	for i := range matches {
		other, _ := matches[i].Other(me.ID)
		p, ok := people[other]
		if !ok {
			continue
		}
		entries = append(entries, matchEntry{Name: p.DisplayName, ThreadID: matches[i].ThreadID})
	}
	msg := tgbotapi.NewMessage(chatID, textChooseMatch)
	msg.ReplyMarkup = matchesKeyboard(entries)
	d.send(msg)
	return nil
}

func (d *Dispatcher) cmdHistory(ctx context.Context, chatID int64) error {
	st, err := d.states.Get(ctx, chatID)
	if err != nil {
		return err
	}
	thread, ok := st.(conversation.InThread)
	if !ok {
		d.reply(chatID, textNotInChat)
		return nil
	}
	me, err := d.viewer(ctx, chatID)
	if err != nil {
		return err
	}
	peer, err := d.threadPeer(ctx, me.ID, thread.ThreadID)
	if err != nil {
		return err
	}
	msgs, err := d.core.Chat.GetThreadHistory(ctx, thread.ThreadID)
	if err != nil {
		return err
	}
	d.reply(chatID, renderHistory(msgs, me.ID, peer.DisplayName))
	return nil
}

func (d *Dispatcher) cmdBlocked(ctx context.Context, chatID int64) error {
	me, err := d.viewer(ctx, chatID)
	if err != nil {
		return err
	}
	blocks, err := d.core.Moderation.ListBlocked(ctx, me.ID)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		d.reply(chatID, textNoBlocked)
		return nil
	}
	ids := make([]uint64, 0, len(blocks))
	for _, b := range blocks {
		ids = append(ids, b.BlockedID)
	}
	names, err := d.core.Profiles.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, renderBlocked(blocks, names))
	msg.ReplyMarkup = blockedKeyboard(blocks, names)
	d.send(msg)
	return nil
}

func (d *Dispatcher) cmdUnblock(ctx context.Context, chatID int64, args string) error {
	id, err := strconv.ParseUint(strings.TrimSpace(args), 10, 64)
	if err != nil {
		d.reply(chatID, "Usage: /unblock <id>")
		return nil
	}
	me, err := d.viewer(ctx, chatID)
	if err != nil {
		return err
	}
	ok, err := d.core.Moderation.Unblock(ctx, me.ID, id)
	if err != nil {
		return err
	}
	if !ok {
		d.reply(chatID, textNotBlocked)
		return nil
	}
	d.reply(chatID, textUnblocked)
	return nil
}

// cmdSettings handles "/settings", "/settings reset" and
// "/settings <min> <max> [gender|any] [city|anywhere]".
func (d *Dispatcher) cmdSettings(ctx context.Context, chatID int64, args string) error {
	me, err := d.viewer(ctx, chatID)
	if err != nil {
		return err
	}
	fields := strings.Fields(strings.ToLower(args))

	switch {
	case len(fields) == 0:
		pref, err := d.core.Preferences.Get(ctx, me.ID)
		if err != nil {
			return err
		}
		d.reply(chatID, renderSettings(pref))
		return nil
	case len(fields) == 1 && fields[0] == "reset":
		if err := d.core.Preferences.Delete(ctx, me.ID); err != nil {
			return err
		}
		d.reply(chatID, textPrefsReset)
		return nil
	case len(fields) < 2 || len(fields) > 4:
		d.reply(chatID, textSettingsHelp)
		return nil
	}

	minAge, errMin := strconv.Atoi(fields[0])
	maxAge, errMax := strconv.Atoi(fields[1])
	if errMin != nil || errMax != nil {
		d.reply(chatID, "⚠️ Ages must be numbers.")
		return nil
	}
	if !db.ValidAgeRange(minAge, maxAge) {
		d.reply(chatID, "⚠️ The age range must start at 18 or more and the minimum can't exceed the maximum.")
		return nil
	}

	pref := &db.SearchPreference{ProfileID: me.ID, MinAge: minAge, MaxAge: maxAge}
	if len(fields) > 2 && fields[2] != "any" {
		gender, ok := db.ParseGender(fields[2])
		if !ok {
			d.reply(chatID, "⚠️ Gender must be male, female, other or any.")
			return nil
		}
		pref.PreferredGender = gender
	}
	if len(fields) > 3 {
		switch fields[3] {
		case "city":
			pref.CityOnly = true
		case "anywhere":
		default:
			d.reply(chatID, textSettingsHelp)
			return nil
		}
	}

	if err := d.core.Preferences.Upsert(ctx, pref); err != nil {
		return err
	}
	d.log.Debug("search settings saved", "profile_id", me.ID, "min_age", minAge, "max_age", maxAge)
	d.reply(chatID, textPrefsSaved)
	return nil
}

// cmdSkip leaves a block without a reason and moves on to the next card.
func (d *Dispatcher) cmdSkip(ctx context.Context, chatID int64) error {
	st, err := d.states.Get(ctx, chatID)
	if err != nil {
		return err
	}
	if _, ok := st.(conversation.AwaitingBlockReason); !ok {
		d.reply(chatID, textNoSkip)
		return nil
	}
	return d.showNext(ctx, chatID)
}

func (d *Dispatcher) dropReasonPrompt(ctx context.Context, chatID int64) {
	st, err := d.states.Get(ctx, chatID)
	if err != nil {
		d.log.Debug("conversation state not loaded", "chat_id", chatID, "err", err)
		return
	}
	if _, ok := st.(conversation.AwaitingBlockReason); ok {
		d.setState(ctx, chatID, conversation.Idle{})
	}
}

// relayText forwards free text to the active thread.
func (d *Dispatcher) relayText(ctx context.Context, chatID int64, text string) error {
	st, err := d.states.Get(ctx, chatID)
	if err != nil {
		return err
	}
	switch s := st.(type) {
	case conversation.InThread:
		me, err := d.viewer(ctx, chatID)
		if err != nil {
			return err
		}
		res, err := d.core.Chat.SendMessage(ctx, s.ThreadID, me.ID, text)
		if err != nil {
			return err
		}
		if res.Warning != nil {
			d.reply(chatID, textNotDelivered)
			return nil
		}
		d.reply(chatID, textSent)
	case conversation.AwaitingBlockReason:
		return d.saveBlockReason(ctx, chatID, s.BlockedID, text)
	case conversation.AwaitingCandidateDecision:
		d.reply(chatID, "Use the buttons under the profile: ❤️ or ❌.")
	default:
		d.reply(chatID, textNotInChat)
	}
	return nil
}

// saveBlockReason attaches the reason to an existing block, then shows the next card.
func (d *Dispatcher) saveBlockReason(ctx context.Context, chatID int64, blockedID uint64, text string) error {
	reason := strings.TrimSpace(text)
	if reason == "" {
		d.reply(chatID, textBlockReason)
		return nil
	}
	if utf8.RuneCountInString(reason) > maxReasonRunes {
		d.reply(chatID, textLongReason)
		return nil
	}
	me, err := d.viewer(ctx, chatID)
	if err != nil {
		return err
	}
	if err := d.core.Moderation.Block(ctx, me.ID, blockedID, &reason); err != nil {
		return err
	}
	d.reply(chatID, textReasonSaved)
	return d.showNext(ctx, chatID)
}

// handleCallback serves inline button presses. The returned text is shown as
// the callback answer.
func (d *Dispatcher) handleCallback(ctx context.Context, chatID int64, cq *tgbotapi.CallbackQuery) (string, error) {
	action, payload, ok := parseCallback(cq.Data)
	if !ok {
		return "", nil
	}
	me, err := d.viewer(ctx, chatID)
	if err != nil {
		return "", err
	}

	switch action {
	case actionLike, actionDislike:
		candidateID, err := strconv.ParseUint(payload, 10, 64)
		if err != nil {
			return "", nil
		}
		res, err := d.core.Swipe.RecordDecision(ctx, me.ID, candidateID, action == actionLike)
		if err != nil {
			return "", err
		}
		d.dropCard(chatID, cq.Message)
		answer := ""
		switch {
		case res.Duplicate:
			answer = "You already decided on this profile."
		case res.Match != nil:
			answer = "🎉 It's a match!"
		}
		return answer, d.showNext(ctx, chatID)

	case actionBlock:
		blockedID, err := strconv.ParseUint(payload, 10, 64)
		if err != nil {
			return "", nil
		}
		if err := d.core.Moderation.Block(ctx, me.ID, blockedID, nil); err != nil {
			return "", err
		}
		d.dropCard(chatID, cq.Message)
		d.setState(ctx, chatID, conversation.AwaitingBlockReason{BlockedID: blockedID})
		d.reply(chatID, textBlockReason)
		return textBlockedDone, nil

	case actionUnblock:
		blockedID, err := strconv.ParseUint(payload, 10, 64)
		if err != nil {
			return "", nil
		}
		ok, err := d.core.Moderation.Unblock(ctx, me.ID, blockedID)
		if err != nil {
			return "", err
		}
		d.dropCard(chatID, cq.Message)
		d.dropReasonPrompt(ctx, chatID)
		answer := textUnblocked
		if !ok {
			answer = textNotBlocked
		}
		return answer, d.cmdBlocked(ctx, chatID)

	case actionReport:
		reportedID, err := strconv.ParseUint(payload, 10, 64)
		if err != nil {
			return "", nil
		}
		reporter := me.ID
		if _, err := d.core.Moderation.SubmitReport(ctx, &reporter, reportedID, "reported from profile card"); err != nil {
			return "", err
		}
		return textReportSent, nil

	case actionChat:
		peer, err := d.threadPeer(ctx, me.ID, payload)
		if err != nil {
			return "", err
		}
		d.setState(ctx, chatID, conversation.InThread{ThreadID: payload})
		d.reply(chatID, fmt.Sprintf("🔸 Write a message and I'll pass it to %s.\n/history shows the conversation, /exit leaves it.", peer.DisplayName))
		return "", nil
	}
	return "", nil
}

// threadPeer returns the other participant of one of the viewer's matches.
func (d *Dispatcher) threadPeer(ctx context.Context, viewerID uint64, threadID string) (*db.Profile, error) {
	matches, err := d.core.Matches.ListMatches(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if matches[i].ThreadID != threadID {
			continue
		}
		other, _ := matches[i].Other(viewerID)
		return d.core.Profiles.GetByID(ctx, other)
	}
	return nil, fmt.Errorf("thread %s: %w", threadID, svcErr.ErrThreadNotFound)
}

// dropCard deletes the message whose button was pressed.
func (d *Dispatcher) dropCard(chatID int64, msg *tgbotapi.Message) {
	if msg == nil {
		return
	}
	if _, err := d.api.Request(tgbotapi.NewDeleteMessage(chatID, msg.MessageID)); err != nil {
		d.log.Debug("card not deleted", "chat_id", chatID, "message_id", msg.MessageID, "err", err)
	}
}

func firstName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	return u.FirstName
}
