package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/guidesync/guidesync/internal/models"
	"github.com/guidesync/guidesync/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testRepos struct {
	sources   repository.EpgSourceRepository
	channels  repository.ChannelRepository
	schedules repository.ScheduleRepository
}

func setupTestRepos(t *testing.T) testRepos {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.EpgSource{}, &models.Channel{}, &models.ScheduleEntry{})
	require.NoError(t, err)

	return testRepos{
		sources:   repository.NewEpgSourceRepository(db),
		channels:  repository.NewChannelRepository(db),
		schedules: repository.NewScheduleRepository(db),
	}
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<tv>
  <channel id="bbc1">
    <display-name>BBC One</display-name>
    <icon src="http://img.example.com/bbc1.png"/>
  </channel>
  <channel id="cnn.us">
    <display-name>CNN</display-name>
  </channel>
  <programme channel="bbc1" start="20260830180000 +0000" stop="20260830190000 +0000">
    <title>Evening News</title>
  </programme>
  <programme channel="bbc1" start="20260830190000 +0000" stop="20260830200000 +0000">
    <title>Drama Hour</title>
  </programme>
  <programme channel="cnn.us" start="20260830180000 +0000" stop="20260830183000 +0000">
    <title>World Report</title>
  </programme>
</tv>`
