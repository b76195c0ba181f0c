package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/supperdoggy/SmartHomeServer/harmoniq-maestro/playlist-tracker/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate document")
)

type Database interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
	SaveUserActivity(ctx context.Context, user *models.User) error

	InsertPlaylist(ctx context.Context, playlist *models.Playlist) error
	GetPlaylists(ctx context.Context, ownerID string) ([]models.Playlist, error)
	GetPlaylist(ctx context.Context, id, ownerID string) (*models.Playlist, error)
	PlaylistExists(ctx context.Context, playlistID, ownerID string) (bool, error)
	SetVideoCompleted(ctx context.Context, id, ownerID, videoID string, completed bool, at time.Time) error
	SetPlaybackSpeed(ctx context.Context, id, ownerID string, speed float64) error

	GetStats(ctx context.Context) (*Stats, error)
	Close(ctx context.Context) error
	Ping(ctx context.Context) error
}

type Stats struct {
	TotalUsers     int64 `json:"total_users"`
	TotalPlaylists int64 `json:"total_playlists"`
}

type db struct {
	conn *mongo.Client
	log  *zap.Logger

	usersCollection     *mongo.Collection
	playlistsCollection *mongo.Collection
	dbname              string
}

func NewDatabase(ctx context.Context, log *zap.Logger, url, dbname string) (Database, error) {
	conn, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection
	if err := conn.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	d := &db{
		conn:   conn,
		log:    log,
		dbname: dbname,

		usersCollection:     conn.Database(dbname).Collection("users"),
		playlistsCollection: conn.Database(dbname).Collection("playlists"),
	}

	if err := d.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *db) ensureIndexes(ctx context.Context) error {
	_, err := d.usersCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = d.playlistsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "owner_user_id", Value: 1}, {Key: "playlist_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create playlist indexes: %w", err)
	}

	return nil
}

func (d *db) Close(ctx context.Context) error {
	return d.conn.Disconnect(ctx)
}

func (d *db) Ping(ctx context.Context) error {
	return d.conn.Ping(ctx, nil)
}

func (d *db) CreateUser(ctx context.Context, user *models.User) error {
	if err := assignID(&user.ID); err != nil {
		return err
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if user.LearningActivity == nil {
		user.LearningActivity = []models.DailyActivity{}
	}

	_, err := d.usersCollection.InsertOne(ctx, user)
	if err != nil {
		return duplicate(err, "failed to insert user")
	}

	return nil
}

func (d *db) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return d.findUser(ctx, bson.M{"_id": id})
}

func (d *db) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return d.findUser(ctx, bson.M{"email": email})
}

func (d *db) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := d.usersCollection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, notFound(err, "failed to find user")
	}
	return &user, nil
}

func (d *db) UserExists(ctx context.Context, username, email string) (bool, error) {
	count, err := d.usersCollection.CountDocuments(ctx, bson.M{
		"$or": []bson.M{{"email": email}, {"username": username}},
	})
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

// SaveUserActivity overwrites the analytics fields of the user document.
// Callers hold the per-user lock so read-modify-write is not lost.
func (d *db) SaveUserActivity(ctx context.Context, user *models.User) error {
	result, err := d.usersCollection.UpdateOne(ctx, bson.M{"_id": user.ID}, activityUpdate(user))
	if err != nil {
		return fmt.Errorf("failed to save user activity: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("user with id %s: %w", user.ID, ErrNotFound)
	}

	return nil
}

func (d *db) InsertPlaylist(ctx context.Context, playlist *models.Playlist) error {
	if err := assignID(&playlist.ID); err != nil {
		return err
	}
	if playlist.CreatedAt.IsZero() {
		playlist.CreatedAt = time.Now()
	}

	_, err := d.playlistsCollection.InsertOne(ctx, playlist)
	if err != nil {
		return duplicate(err, "failed to insert playlist")
	}

	return nil
}

func (d *db) GetPlaylists(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	playlists := make([]models.Playlist, 0)

	cursor, err := d.playlistsCollection.Find(ctx, bson.M{"owner_user_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find playlists: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &playlists); err != nil {
		return nil, fmt.Errorf("failed to decode playlists: %w", err)
	}

	return playlists, nil
}

func (d *db) GetPlaylist(ctx context.Context, id, ownerID string) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := d.playlistsCollection.FindOne(ctx, ownedPlaylistFilter(id, ownerID)).Decode(&playlist); err != nil {
		return nil, notFound(err, "failed to find playlist")
	}
	return &playlist, nil
}

func (d *db) PlaylistExists(ctx context.Context, playlistID, ownerID string) (bool, error) {
	count, err := d.playlistsCollection.CountDocuments(ctx, bson.M{
		"playlist_id":   playlistID,
		"owner_user_id": ownerID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to check playlist existence: %w", err)
	}
	return count > 0, nil
}

func (d *db) SetVideoCompleted(ctx context.Context, id, ownerID, videoID string, completed bool, at time.Time) error {
	filter := ownedPlaylistFilter(id, ownerID)
	filter["videos.video_id"] = videoID

	result, err := d.playlistsCollection.UpdateOne(ctx, filter, videoCompletionUpdate(completed, at))
	if err != nil {
		return fmt.Errorf("failed to update video completion: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("video %s in playlist %s: %w", videoID, id, ErrNotFound)
	}

	return nil
}

func (d *db) SetPlaybackSpeed(ctx context.Context, id, ownerID string, speed float64) error {
	result, err := d.playlistsCollection.UpdateOne(
		ctx,
		ownedPlaylistFilter(id, ownerID),
		bson.M{"$set": bson.M{"playback_speed": speed}},
	)
	if err != nil {
		return fmt.Errorf("failed to update playback speed: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("playlist with id %s: %w", id, ErrNotFound)
	}

	return nil
}

func (d *db) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	users, err := d.usersCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	stats.TotalUsers = users

	playlists, err := d.playlistsCollection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count playlists: %w", err)
	}
	stats.TotalPlaylists = playlists

	return stats, nil
}

func assignID(id *string) error {
	if *id != "" {
		return nil
	}
	newID, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("failed to generate id: %w", err)
	}
	*id = newID.String()
	return nil
}

func ownedPlaylistFilter(id, ownerID string) bson.M {
	return bson.M{"_id": id, "owner_user_id": ownerID}
}

func activityUpdate(user *models.User) bson.M {
	activity := user.LearningActivity
	if activity == nil {
		activity = []models.DailyActivity{}
	}
	return bson.M{"$set": bson.M{
		"learning_activity": activity,
		"streak":            user.Streak,
		"total_stats":       user.TotalStats,
	}}
}

// videoCompletionUpdate targets the video matched by the filter through the positional operator.
func videoCompletionUpdate(completed bool, at time.Time) bson.M {
	if completed {
		return bson.M{"$set": bson.M{
			"videos.$.completed":    true,
			"videos.$.completed_at": at,
		}}
	}
	return bson.M{
		"$set":   bson.M{"videos.$.completed": false},
		"$unset": bson.M{"videos.$.completed_at": ""},
	}
}

func notFound(err error, msg string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", msg, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// duplicate maps a unique index violation (E11000) onto ErrDuplicate.
func duplicate(err error, msg string) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", msg, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
