// Package discord is the best-effort notification relay. Every leg (webhook
// embed, sibling leaderboard ping, Redis stream event) is independent: a
// failure is logged and never reaches the request that triggered it.
package discord

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/ZIKOpl/SITE-VOUCH/src/api/config"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/data"
	"github.com/ZIKOpl/SITE-VOUCH/src/api/types"
	"github.com/ZIKOpl/SITE-VOUCH/src/logging"
	"github.com/ZIKOpl/SITE-VOUCH/src/webclient"
	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
)

var webhookPath = regexp.MustCompile(`webhooks/(\d+)/([\w-]+)`)

type Notifier struct {
	session      *discordgo.Session
	webhookID    string
	webhookToken string
	pingURL      string
	rdb          *redis.Client
	http         *http.Client
}

// NewNotifier builds the relay from config. A missing or malformed webhook
// URL disables the webhook leg only; the other legs still run.
func NewNotifier(cfg config.Config, rdb *redis.Client) *Notifier {
	n := &Notifier{
		pingURL: cfg.LeaderboardPingURL,
		rdb:     rdb,
		http:    webclient.NewDefault(10 * time.Second),
	}
	if cfg.WebhookURL != "" {
		m := webhookPath.FindStringSubmatch(cfg.WebhookURL)
		if m == nil {
			log.Printf("notify: ignoring malformed webhook URL")
		} else {
			// Webhook execution needs no bot token.
			s, err := discordgo.New("")
			if err != nil {
				log.Printf("notify: discord session: %v", err)
			} else {
				n.session = s
				n.webhookID = m[1]
				n.webhookToken = m[2]
			}
		}
	}
	return n
}

// VouchCreated fans out after a vouch has been persisted.
func (n *Notifier) VouchCreated(guildID string, v types.Vouch) {
	n.execWebhook(vouchEmbed("New vouch", v))
	n.pingLeaderboard(guildID)
	n.publish(guildID, "vouch_created", v.ID)
}

// VouchDeleted fans out after a vouch has been removed and the rest
// resequenced.
func (n *Notifier) VouchDeleted(guildID string, id, nextID int) {
	n.execWebhook(&discordgo.MessageEmbed{
		Title:       "Vouch removed",
		Description: fmt.Sprintf("Vouch #%d was removed; remaining vouches were renumbered.", id),
		Color:       0xe74c3c,
	})
	n.pingLeaderboard(guildID)
	n.publish(guildID, "vouch_deleted", id)
}

func (n *Notifier) execWebhook(embed *discordgo.MessageEmbed) {
	if n.session == nil {
		return
	}
	_, err := n.session.WebhookExecute(n.webhookID, n.webhookToken, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
	if err != nil && logging.IsRateLimit(err) {
		time.Sleep(2 * time.Second)
		_, err = n.session.WebhookExecute(n.webhookID, n.webhookToken, false, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{embed},
		})
	}
	if err != nil {
		log.Printf("notify: webhook: %v", err)
	}
}

func (n *Notifier) pingLeaderboard(guildID string) {
	if n.pingURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	body := []byte(fmt.Sprintf(`{"guildId":%q}`, guildID))
	status, _, err := webclient.DoWithRetry(ctx, 2, time.Second, func() (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.pingURL, bytes.NewReader(body))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := n.http.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, b, nil
	})
	if err != nil || status >= 400 {
		log.Printf("notify: leaderboard ping: status=%d err=%v", status, err)
	}
}

func (n *Notifier) publish(guildID, event string, id int) {
	if n.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := data.PublishVouchEvent(ctx, n.rdb, map[string]interface{}{
		"event":    event,
		"guild_id": guildID,
		"vouch_id": id,
		"time":     time.Now().Unix(),
	}); err != nil {
		log.Printf("notify: publish event: %v", err)
	}
}

func vouchEmbed(title string, v types.Vouch) *discordgo.MessageEmbed {
	vendor := v.VendorLabel
	if v.VendorID != "" {
		vendor = fmt.Sprintf("<@%s>", v.VendorID)
	}
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s #%d", title, v.ID),
		Color: 0x2ecc71,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Vendor", Value: vendor, Inline: true},
			{Name: "Note", Value: fmt.Sprintf("%g/5", v.Note), Inline: true},
		},
		Timestamp: time.UnixMilli(v.CreatedAt).UTC().Format(time.RFC3339),
	}
	if v.Item != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Item", Value: fmt.Sprintf("%s x%d", v.Item, v.Qty), Inline: true,
		})
	}
	if v.Price != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Price", Value: v.Price, Inline: true})
	}
	if v.Payment != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Payment", Value: v.Payment, Inline: true})
	}
	if v.Comment != "" {
		embed.Description = v.Comment
	}
	// Anonymous vouches keep attribution in storage but never in public
	// notifications.
	if !v.Anonymous && v.AuthorTag != "" {
		author := &discordgo.MessageEmbedAuthor{Name: v.AuthorTag}
		if v.AuthorAvatar != "" {
			author.IconURL = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", v.AuthorID, v.AuthorAvatar)
		}
		embed.Author = author
	}
	return embed
}
