package internal

import (
	"strconv"
	"time"

	"github.com/StagehandTeam/Stagehand-Daemon/discord"
	"github.com/StagehandTeam/Stagehand-Daemon/stagehandjson"
	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gotils_strconv "github.com/savsgio/gotils/strconv"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// RestResponse is the response when returning rest requests.
type RestResponse struct {
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
	Ok    bool        `json:"ok"`
}

// NewRestRouter returns the router for the status API.
func (sg *Stagehand) NewRestRouter() *router.Router {
	r := router.New()
	r.GET("/api/status", sg.StatusHandler)
	r.GET("/api/guilds/{guild_id}/scheduled-events", sg.GuildScheduledEventsHandler)
	r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))

	return r
}

func (sg *Stagehand) writeRestResponse(ctx *fasthttp.RequestCtx, statusCode int, response RestResponse) {
	body, err := stagehandjson.Marshal(response)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString(err.Error())

		return
	}

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(statusCode)
	ctx.SetBody(body)
}

// StatusResponse summarises the daemon for operators.
type StatusResponse struct {
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	EventsInflight int32 `json:"events_inflight"`

	Users           int `json:"users"`
	Channels        int `json:"channels"`
	ScheduledEvents int `json:"scheduled_events"`
}

func (sg *Stagehand) StatusHandler(ctx *fasthttp.RequestCtx) {
	sg.writeRestResponse(ctx, fasthttp.StatusOK, RestResponse{
		Ok: true,
		Data: StatusResponse{
			Version: VERSION,
			Uptime:  time.Since(sg.StartTime).Round(time.Second).String(),

			EventsInflight: sg.EventsInflight.Load(),

			Users:           sg.State.Users.Count(),
			Channels:        sg.State.GuildChannels.Count(),
			ScheduledEvents: sg.State.GuildEvents.Count(),
		},
	})
}

// GuildScheduledEventsHandler lists the scheduled events tracked for a
// guild. Passing refresh=true re-fetches them before answering.
func (sg *Stagehand) GuildScheduledEventsHandler(ctx *fasthttp.RequestCtx) {
	param, _ := ctx.UserValue("guild_id").(string)

	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		sg.writeRestResponse(ctx, fasthttp.StatusBadRequest, RestResponse{
			Error: "invalid guild id",
		})

		return
	}

	guildID := discord.GuildID(id)

	if gotils_strconv.B2S(ctx.QueryArgs().Peek("refresh")) == "true" {
		events, err := discord.FetchGuildScheduledEvents(sg.Session, sg.State, guildID, true)
		if err != nil {
			sg.writeRestResponse(ctx, fasthttp.StatusBadGateway, RestResponse{
				Error: returnError(err),
			})

			return
		}

		for _, ev := range events {
			sg.State.SetGuildEvent(ev)
		}
	}

	sg.writeRestResponse(ctx, fasthttp.StatusOK, RestResponse{
		Ok:   true,
		Data: sg.State.GuildScheduledEvents(guildID),
	})
}
