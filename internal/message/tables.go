package message

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Display is the emoji and caption rendered for a type or an extra key.
type Display struct {
	Emoji string
	Label string
}

const (
	fallbackTypeEmoji  = "📢"
	fallbackExtraEmoji = "•"
)

var types = map[string]Display{
	"backup":        {Emoji: "🗄️", Label: "BACKUP ZAVRŠEN"},
	"backup_failed": {Emoji: "❌", Label: "BACKUP NIJE USPEO"},
	"new_user":      {Emoji: "👤", Label: "NOVI KORISNIK"},
	"error":         {Emoji: "🚨", Label: "GREŠKA"},
	"warning":       {Emoji: "⚠️", Label: "UPOZORENJE"},
	"info":          {Emoji: "ℹ️", Label: "INFORMACIJA"},
	"success":       {Emoji: "✅", Label: "USPEŠNO"},
	"test":          {Emoji: "🧪", Label: "TEST PORUKA"},
}

// Keys are lower case; lookups fold the caller's key.
var extras = map[string]Display{
	"size":     {Emoji: "📊", Label: "Veličina"},
	"duration": {Emoji: "⏱️", Label: "Trajanje"},
	"file":     {Emoji: "📁", Label: "Fajl"},
	"path":     {Emoji: "📂", Label: "Putanja"},
	"database": {Emoji: "💾", Label: "Baza"},
	"user":     {Emoji: "👤", Label: "Korisnik"},
	"username": {Emoji: "👤", Label: "Korisničko ime"},
	"email":    {Emoji: "📧", Label: "Email"},
	"ip":       {Emoji: "🌐", Label: "IP adresa"},
	"server":   {Emoji: "🖥️", Label: "Server"},
	"error":    {Emoji: "❗", Label: "Greška"},
	"count":    {Emoji: "🔢", Label: "Broj"},
	"url":      {Emoji: "🔗", Label: "Link"},
	"status":   {Emoji: "📌", Label: "Status"},
}

// LookupType returns the display for a notification type. Unknown types get
// the megaphone and the tag in upper case.
func LookupType(tag string) Display {
	if d, ok := types[tag]; ok {
		return d
	}
	return Display{Emoji: fallbackTypeEmoji, Label: strings.ToUpper(tag)}
}

// LookupExtra returns the display for an extra key, matched case-insensitively.
// Unknown keys get a bullet and the capitalized key.
func LookupExtra(key string) Display {
	if d, ok := extras[strings.ToLower(key)]; ok {
		return d
	}
	return Display{Emoji: fallbackExtraEmoji, Label: capitalize(key)}
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
