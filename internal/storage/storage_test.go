package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"muscledynamics/workout-planner/internal/config"
)

type fakeFileStorage struct {
	presignFunc func(ctx context.Context, key string, expires time.Duration) (string, error)
}

func (f *fakeFileStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	return f.presignFunc(ctx, key, expires)
}

func TestBaseURLResolver(t *testing.T) {
	r := NewBaseURLResolver("https://img.example.com/exercises")
	got, err := r.ResolveImages(context.Background(), []string{
		"Push_Up/0.jpg",
		"",
		"/Push_Up/1.jpg",
		"https://cdn.example.com/abs.jpg",
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"https://img.example.com/exercises/Push_Up/0.jpg",
		"https://img.example.com/exercises/Push_Up/1.jpg",
		"https://cdn.example.com/abs.jpg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ResolveImages() = %v, want %v", got, want)
	}
}

func TestPresignedResolver(t *testing.T) {
	var gotExpiry time.Duration
	fs := &fakeFileStorage{presignFunc: func(_ context.Context, key string, expires time.Duration) (string, error) {
		gotExpiry = expires
		return "https://signed/" + key, nil
	}}

	r := NewPresignedResolver(fs, "images/", 0)
	got, err := r.ResolveImages(context.Background(), []string{"Squat/0.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "https://signed/images/Squat/0.jpg" {
		t.Fatalf("ResolveImages() = %v", got)
	}
	if gotExpiry != DefaultPresignedURLExpiry {
		t.Fatalf("expiry = %v, want %v", gotExpiry, DefaultPresignedURLExpiry)
	}
}

func TestPresignedResolver_Error(t *testing.T) {
	boom := errors.New("signing failed")
	fs := &fakeFileStorage{presignFunc: func(context.Context, string, time.Duration) (string, error) {
		return "", boom
	}}
	_, err := NewPresignedResolver(fs, "", time.Minute).ResolveImages(context.Background(), []string{"a.jpg"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestNewImageResolver(t *testing.T) {
	r, err := NewImageResolver(context.Background(), config.StorageConfig{Driver: config.StorageURL, ImageBaseURL: "http://img/"})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := r.ResolveImages(context.Background(), []string{"Plank/0.jpg"})
	if len(got) != 1 || got[0] != "http://img/Plank/0.jpg" {
		t.Fatalf("ResolveImages() = %v", got)
	}

	if _, err := NewImageResolver(context.Background(), config.StorageConfig{Driver: "ftp"}); err == nil {
		t.Fatal("expected error for unknown storage driver")
	}
}
