package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oggyb/matchbot/internal/db"
	svcErr "github.com/oggyb/matchbot/internal/errors"
)

// Callback data prefixes. The payload follows the underscore.
const (
	actionLike    = "like"
	actionDislike = "dislike"
	actionBlock   = "block"
	actionReport  = "report"
	actionChat    = "chat"
	actionUnblock = "unblock"
)

// historyTail is how many recent messages /history shows.
const historyTail = 20

// maxReasonRunes matches the block reason column.
const maxReasonRunes = 255

const (
	textRegister = "👋 Welcome! Fill in your profile to start meeting people:\n" +
		"/profile <age> <gender> <orientation> <city> [bio]\n\n" +
		"gender: male | female | other\norientation: hetero | homo | bi | other"
	textWelcomeBack  = "👋 Welcome back! /next to meet people, /matches to chat."
	textNoProfile    = "⚠️ Your profile doesn't exist yet. Send /start first."
	textNoMore       = "😔 No more profiles for now. Check back later."
	textNoMatches    = "😔 You don't have any matches yet."
	textChooseMatch  = "Choose who you want to talk to:"
	textExitChat     = "📤 You left the chat."
	textNotInChat    = "Pick a conversation with /matches first."
	textSent         = "✅ Message sent."
	textNotDelivered = "⚠️ Message saved, but it could not be delivered right now."
	textNoBlocked    = "You haven't blocked anyone."
	textReportSent   = "🚨 Report sent to the moderators."
	textBlockedDone  = "🚫 Profile blocked."
	textUnknown      = "Unknown command. Try /next, /matches, /settings or /exit."
	textFailure      = "❌ Something went wrong, please try again."
	textSlowDown     = "⏳ Too many requests, slow down a little."
	textBlockReason  = "Why did you block this profile? Send a reason or /skip."
	textReasonSaved  = "✅ Thanks, the reason is saved."
	textLongReason   = "⚠️ Please keep the reason under 255 characters."
	textNoSkip       = "Nothing to skip."
	textUnblocked    = "✅ Unblocked."
	textNotBlocked   = "That profile was not blocked."
	textSettingsHelp = "/settings <min age> <max age> [male|female|other|any] [city|anywhere]\n" +
		"/settings reset goes back to the defaults."
	textPrefsSaved = "✅ Search settings saved. Send /next to see who fits."
	textPrefsReset = "✅ Search settings reset to the defaults."
)

// renderCandidate is the swipe card for a candidate profile.
func renderCandidate(p *db.Profile) string {
	bio := p.Bio
	if bio == "" {
		bio = "—"
	}
	return fmt.Sprintf("👤 %s, %d\n🏙 %s\n📝 %s", p.DisplayName, p.Age, p.City, bio)
}

func candidateKeyboard(candidateID uint64) tgbotapi.InlineKeyboardMarkup {
	id := strconv.FormatUint(candidateID, 10)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❤️", callbackData(actionLike, id)),
			tgbotapi.NewInlineKeyboardButtonData("❌", callbackData(actionDislike, id)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚫 Block", callbackData(actionBlock, id)),
			tgbotapi.NewInlineKeyboardButtonData("🚨 Report", callbackData(actionReport, id)),
		),
	)
}

// matchEntry is one row of the /matches keyboard.
type matchEntry struct {
	Name     string
	ThreadID string
}

func matchesKeyboard(entries []matchEntry) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💬 "+e.Name, callbackData(actionChat, e.ThreadID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func callbackData(action, payload string) string {
	return action + "_" + payload
}

// parseCallback splits "action_payload". Thread ids contain dashes, never underscores.
func parseCallback(data string) (action, payload string, ok bool) {
	action, payload, ok = strings.Cut(data, "_")
	if !ok || payload == "" {
		return "", "", false
	}
	return action, payload, true
}

// renderHistory prints the last historyTail messages of a thread.
func renderHistory(msgs []db.Message, viewerID uint64, otherName string) string {
	if len(msgs) == 0 {
		return "No messages yet. Say hi!"
	}
	if len(msgs) > historyTail {
		msgs = msgs[len(msgs)-historyTail:]
	}
	var b strings.Builder
	for _, m := range msgs {
		who := otherName
		if m.SenderID == viewerID {
			who = "You"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.SentAt.Format("02.01 15:04"), who, m.Body)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderBlocked(blocks []db.BlockRelation, names map[uint64]db.Profile) string {
	var b strings.Builder
	b.WriteString("🚫 Blocked profiles:\n")
	for _, r := range blocks {
		name := "unknown"
		if p, ok := names[r.BlockedID]; ok {
			name = p.DisplayName
		}
		fmt.Fprintf(&b, "• %s (id %d)\n", name, r.BlockedID)
	}
	b.WriteString("\nTap a button below or send /unblock <id>.")
	return b.String()
}

func blockedKeyboard(blocks []db.BlockRelation, names map[uint64]db.Profile) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(blocks))
	for _, r := range blocks {
		label := "🔓 Unblock " + strconv.FormatUint(r.BlockedID, 10)
		if p, ok := names[r.BlockedID]; ok {
			label = "🔓 Unblock " + p.DisplayName
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, callbackData(actionUnblock, strconv.FormatUint(r.BlockedID, 10))),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderSettings describes the viewer's search filters. nil means defaults.
func renderSettings(pref *db.SearchPreference) string {
	if pref == nil {
		return "🔎 Default search: people whose orientation fits yours, within 5 years of your age, any city.\n\n" + textSettingsHelp
	}
	gender := "any"
	if pref.PreferredGender != "" {
		gender = string(pref.PreferredGender)
	}
	where := "any city"
	if pref.CityOnly {
		where = "your city only"
	}
	return fmt.Sprintf("🔎 Your search: age %d-%d, gender %s, %s.\n\n%s", pref.MinAge, pref.MaxAge, gender, where, textSettingsHelp)
}

// userMessage turns a core error into text for the chat.
func userMessage(err error) string {
	switch {
	case errors.Is(err, svcErr.ErrProfileNotFound):
		return textNoProfile
	case errors.Is(err, svcErr.ErrProfileIncomplete):
		return "⚠️ Finish your profile first:\n/profile <age> <gender> <orientation> <city> [bio]"
	case errors.Is(err, svcErr.ErrInvalidAge):
		return "⚠️ You must be at least 18 to use this bot."
	case errors.Is(err, svcErr.ErrSelfDecision), errors.Is(err, svcErr.ErrSelfBlock):
		return "⚠️ That's your own profile."
	case errors.Is(err, svcErr.ErrThreadNotFound), errors.Is(err, svcErr.ErrNotParticipant):
		return "⚠️ This conversation is not available."
	case errors.Is(err, svcErr.ErrEmptyMessage):
		return "⚠️ The message is empty."
	case errors.Is(err, svcErr.ErrMessageTooLong):
		return "⚠️ The message is too long."
	case errors.Is(err, svcErr.ErrBlocked):
		return "🚫 You can't message this person."
	default:
		return textFailure
	}
}
