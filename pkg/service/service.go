package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/activity"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/auth"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/db"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/importer"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/lock"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/models"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/notify"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/progress"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/utils"
	"go.uber.org/zap"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrAlreadyImported = errors.New("playlist already imported")
	ErrUserExists      = errors.New("user already exists")
)

const (
	minPasswordLength = 6
	defaultLockHold   = 9 * time.Second
)

type PlaylistImporter interface {
	Import(ctx context.Context, playlistID string) (*importer.Result, error)
}

type Service struct {
	db       db.Database
	importer PlaylistImporter
	locker   lock.Locker
	notifier notify.Notifier
	log      *zap.Logger
	loc      *time.Location
	now      func() time.Time
	lockHold time.Duration

	defaultPlaylistID string
}

type Options struct {
	Database          db.Database
	Importer          PlaylistImporter
	Locker            lock.Locker
	Notifier          notify.Notifier
	Log               *zap.Logger
	Location          *time.Location
	DefaultPlaylistID string
	// LockHold bounds the work done under a user lock. It must not exceed the
	// lock's own expiry, otherwise a second holder can get in.
	LockHold          time.Duration
}

func New(opts Options) *Service {
	s := &Service{
		db:                opts.Database,
		importer:          opts.Importer,
		locker:            opts.Locker,
		notifier:          opts.Notifier,
		log:               opts.Log,
		loc:               opts.Location,
		now:               time.Now,
		defaultPlaylistID: opts.DefaultPlaylistID,
		lockHold:          opts.LockHold,
	}
	if s.locker == nil {
		s.locker = lock.NewLocalLocker()
	}
	if s.notifier == nil {
		s.notifier = notify.NewNopNotifier()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.lockHold <= 0 {
		s.lockHold = defaultLockHold
	}
	return s
}

type PlaylistView struct {
	models.Playlist
	Progress      progress.Progress  `json:"progress"`
	RemainingTime progress.Remaining `json:"remainingTime"`
}

func newPlaylistView(p models.Playlist) PlaylistView {
	return PlaylistView{
		Playlist:      p,
		Progress:      progress.Compute(p.Videos),
		RemainingTime: progress.RemainingTime(p.Videos, p.PlaybackSpeed),
	}
}

// Totals combines the cross-playlist aggregate with the user's ledger counters.
type Totals struct {
	progress.Totals
	TotalWatchTimeMinutes int `json:"totalWatchTimeMinutes"`
	TotalActiveDays       int `json:"totalActiveDays"`
}

type TodayActivity struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type ToggleResult struct {
	Video         models.Video       `json:"video"`
	Progress      progress.Progress  `json:"progress"`
	RemainingTime progress.Remaining `json:"remainingTime"`
	TotalStats    Totals             `json:"totalStats"`
	Streak        models.Streak      `json:"streak"`
	TodayActivity TodayActivity      `json:"todayActivity"`
}

type SpeedResult struct {
	Speed         float64            `json:"speed"`
	RemainingTime progress.Remaining `json:"remainingTime"`
}

type TrackResult struct {
	TodayActivity TodayActivity     `json:"todayActivity"`
	Streak        models.Streak     `json:"streak"`
	TotalStats    models.TotalStats `json:"totalStats"`
}

type UserStats struct {
	Streak         models.Streak          `json:"streak"`
	TotalStats     Totals                 `json:"totalStats"`
	CalendarData   []activity.CalendarDay `json:"calendarData"`
	RecentActivity []models.DailyActivity `json:"recentActivity"`
}

type ProfileStats struct {
	TotalWatched    int `json:"totalWatched"`
	TotalPlaylists  int `json:"totalPlaylists"`
	CurrentStreak   int `json:"currentStreak"`
	LongestStreak   int `json:"longestStreak"`
	TotalWatchTime  int `json:"totalWatchTime"`
	TotalActiveDays int `json:"totalActiveDays"`
}

type Profile struct {
	Username  string       `json:"username"`
	Email     string       `json:"email"`
	CreatedAt time.Time    `json:"createdAt"`
	Stats     ProfileStats `json:"stats"`
}

func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: username and a valid email are required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	exists, err := s.db.UserExists(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.db.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.db.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}

	return user, nil
}

// ImportPlaylist fetches a playlist and stores it for the user in one insert.
// An empty input falls back to the configured default playlist.
func (s *Service) ImportPlaylist(ctx context.Context, userID, input string) (*PlaylistView, error) {
	if strings.TrimSpace(input) == "" {
		input = s.defaultPlaylistID
	}
	playlistID := utils.ExtractPlaylistID(input)
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id or URL required", ErrInvalidInput)
	}

	exists, err := s.db.PlaylistExists(ctx, playlistID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyImported
	}

	res, err := s.importer.Import(ctx, playlistID)
	if err != nil {
		s.log.Error("playlist import failed", zap.String("playlist_id", playlistID), zap.Error(err))
		return nil, err
	}

	playlist := &models.Playlist{
		PlaylistID:    res.PlaylistID,
		Title:         res.Meta.Title,
		Description:   res.Meta.Description,
		ThumbnailURL:  res.Meta.ThumbnailURL,
		VideoCount:    len(res.Videos),
		OwnerUserID:   userID,
		Videos:        res.Videos,
		PlaybackSpeed: 1.0,
		SkippedItems:  res.Skipped,
		CreatedAt:     s.now(),
	}
	if err := s.db.InsertPlaylist(ctx, playlist); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrAlreadyImported
		}
		return nil, err
	}

	s.log.Info("playlist imported",
		zap.String("user_id", userID),
		zap.String("playlist_id", playlistID),
		zap.Int("videos", playlist.VideoCount),
		zap.Int("skipped", playlist.SkippedItems),
	)

	username := userID
	if user, err := s.db.GetUserByID(ctx, userID); err == nil {
		username = user.Username
	}
	s.notifier.PlaylistImported(playlist, username)

	view := newPlaylistView(*playlist)
	return &view, nil
}

func (s *Service) ListPlaylists(ctx context.Context, userID string) ([]PlaylistView, error) {
	playlists, err := s.db.GetPlaylists(ctx, userID)
	if err != nil {
		return nil, err
	}

	views := make([]PlaylistView, 0, len(playlists))
	for _, p := range playlists {
		views = append(views, newPlaylistView(p))
	}
	return views, nil
}

func (s *Service) GetPlaylist(ctx context.Context, userID, id string) (*PlaylistView, error) {
	playlist, err := s.db.GetPlaylist(ctx, id, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	view := newPlaylistView(*playlist)
	return &view, nil
}

// ToggleVideo flips a video's completion and records the matching ledger event.
// Both writes happen under the user's lock.
func (s *Service) ToggleVideo(ctx context.Context, userID, playlistID, videoID string) (*ToggleResult, error) {
	ctx, unlock, err := s.lockUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	playlist, err := s.db.GetPlaylist(ctx, playlistID, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	idx := playlist.VideoIndex(videoID)
	if idx < 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}

	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	now := s.now()
	video := &playlist.Videos[idx]
	wasCompleted := video.Completed
	video.SetCompleted(!wasCompleted, now)

	if err := s.db.SetVideoCompleted(ctx, playlistID, userID, videoID, video.Completed, now); err != nil {
		return nil, mapNotFound(err)
	}

	kind := activity.MarkedComplete
	if !video.Completed {
		kind = activity.MarkedIncomplete
	}
	ledger := activity.NewLedger(user, s.loc)
	today, err := ledger.Record(now, activity.Event{Kind: kind, VideoID: videoID})
	if err != nil {
		s.revertVideo(playlistID, userID, videoID, wasCompleted, now)
		return nil, err
	}
	if err := s.db.SaveUserActivity(ctx, user); err != nil {
		s.revertVideo(playlistID, userID, videoID, wasCompleted, now)
		return nil, err
	}

	totals, err := s.totals(ctx, user)
	if err != nil {
		return nil, err
	}

	return &ToggleResult{
		Video:         *video,
		Progress:      progress.Compute(playlist.Videos),
		RemainingTime: progress.RemainingTime(playlist.Videos, playlist.PlaybackSpeed),
		TotalStats:    totals,
		Streak:        activity.StreakView(user.Streak, now, s.loc),
		TodayActivity: TodayActivity{Date: today.Day, Count: today.VideosWatched},
	}, nil
}

func (s *Service) revertVideo(playlistID, userID, videoID string, completed bool, at time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.db.SetVideoCompleted(ctx, playlistID, userID, videoID, completed, at); err != nil {
		s.log.Error("failed to revert video completion",
			zap.String("playlist_id", playlistID),
			zap.String("video_id", videoID),
			zap.Error(err),
		)
	}
}

func (s *Service) SetSpeed(ctx context.Context, userID, playlistID string, speed float64) (*SpeedResult, error) {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return nil, fmt.Errorf("%w: speed must be a positive number", ErrInvalidInput)
	}

	playlist, err := s.db.GetPlaylist(ctx, playlistID, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if err := s.db.SetPlaybackSpeed(ctx, playlistID, userID, speed); err != nil {
		return nil, mapNotFound(err)
	}

	return &SpeedResult{
		Speed:         speed,
		RemainingTime: progress.RemainingTime(playlist.Videos, speed),
	}, nil
}

// TrackWatch adds reported watch time to today's ledger entry. A video id, when
// given, also counts that video as watched today.
func (s *Service) TrackWatch(ctx context.Context, userID, videoID string, minutes int) (*TrackResult, error) {
	if minutes < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, activity.ErrNegativeWatchTime)
	}

	ctx, unlock, err := s.lockUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	now := s.now()
	ledger := activity.NewLedger(user, s.loc)
	today, err := ledger.Record(now, activity.Event{Kind: activity.WatchTimeReported, VideoID: videoID, Minutes: minutes})
	if err != nil {
		return nil, err
	}
	if videoID != "" {
		if today, err = ledger.Record(now, activity.Event{Kind: activity.MarkedComplete, VideoID: videoID}); err != nil {
			return nil, err
		}
	}

	if err := s.db.SaveUserActivity(ctx, user); err != nil {
		return nil, err
	}

	return &TrackResult{
		TodayActivity: TodayActivity{Date: today.Day, Count: today.VideosWatched},
		Streak:        activity.StreakView(user.Streak, now, s.loc),
		TotalStats:    user.TotalStats,
	}, nil
}

func (s *Service) UserStats(ctx context.Context, userID string) (*UserStats, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	totals, err := s.totals(ctx, user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ledger := activity.NewLedger(user, s.loc)

	return &UserStats{
		Streak:         activity.StreakView(user.Streak, now, s.loc),
		TotalStats:     totals,
		CalendarData:   activity.RenderCalendar(ledger, activity.CalendarDays, now),
		RecentActivity: activity.Recent(ledger, activity.RecentDays),
	}, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err)
	}

	playlists, err := s.db.GetPlaylists(ctx, userID)
	if err != nil {
		return nil, err
	}

	streak := activity.StreakView(user.Streak, s.now(), s.loc)
	return &Profile{
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		Stats: ProfileStats{
			TotalWatched:    progress.ComputeTotals(playlists).TotalWatched,
			TotalPlaylists:  len(playlists),
			CurrentStreak:   streak.Current,
			LongestStreak:   streak.Longest,
			TotalWatchTime:  user.TotalStats.TotalWatchTimeMinutes,
			TotalActiveDays: user.TotalStats.TotalActiveDays,
		},
	}, nil
}

func (s *Service) totals(ctx context.Context, user *models.User) (Totals, error) {
	playlists, err := s.db.GetPlaylists(ctx, user.ID)
	if err != nil {
		return Totals{}, err
	}

	return Totals{
		Totals:                progress.ComputeTotals(playlists),
		TotalWatchTimeMinutes: user.TotalStats.TotalWatchTimeMinutes,
		TotalActiveDays:       user.TotalStats.TotalActiveDays,
	}, nil
}

// lockUser takes the user's lock. The returned context expires after lockHold.
func (s *Service) lockUser(ctx context.Context, userID string) (context.Context, func(), error) {
	release, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return nil, nil, err
	}

	held, cancel := context.WithTimeout(ctx, s.lockHold)
	return held, func() {
		cancel()
		release()
	}, nil
}

func userLockKey(userID string) string {
	return "user:" + userID
}

func mapNotFound(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
