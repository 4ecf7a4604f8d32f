package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wxforge/wxforge/internal/accum"
	"github.com/wxforge/wxforge/internal/log"
)

const (
	createHypertableSQL = `SELECT create_hypertable('observations', 'time', if_not_exists => TRUE);`
	createExtensionSQL  = `CREATE EXTENSION IF NOT EXISTS timescaledb;`
)

// observation is the persisted row shape. One row per snapshot.
type observation struct {
	Time    time.Time `gorm:"column:time;index"`
	Station string    `gorm:"column:station;index"`

	TempC      *float64 `gorm:"column:temp_c"`
	Humidity   *float64 `gorm:"column:humidity"`
	DewPointC  float64  `gorm:"column:dew_point_c"`
	WindChillC float64  `gorm:"column:wind_chill_c"`
	HeatIndexC float64  `gorm:"column:heat_index_c"`
	FeelsLikeC float64  `gorm:"column:feels_like_c"`
	CloudBaseM float64  `gorm:"column:cloud_base_m"`

	WindSpeedMS   *float64 `gorm:"column:wind_speed_ms"`
	WindGustMS    float64  `gorm:"column:wind_gust_ms"`
	WindDirDeg    float64  `gorm:"column:wind_dir_deg"`
	WindAvgMS     float64  `gorm:"column:wind_avg_ms"`
	WindAvgDirDeg float64  `gorm:"column:wind_avg_dir_deg"`

	PressureHPa *float64 `gorm:"column:pressure_hpa"`

	RainRateMMH         float64 `gorm:"column:rain_rate_mmh"`
	DayRainMM           float64 `gorm:"column:day_rain_mm"`
	RainSinceMidnightMM float64 `gorm:"column:rain_since_midnight_mm"`

	SolarWM2 float64 `gorm:"column:solar_wm2"`
	UVIndex  float64 `gorm:"column:uv_index"`
	CO2PPM   float64 `gorm:"column:co2_ppm"`

	TempAvgC          float64 `gorm:"column:temp_avg_c"`
	WindRunKM         float64 `gorm:"column:wind_run_km"`
	SunshineHours     float64 `gorm:"column:sunshine_hours"`
	ChillHours        float64 `gorm:"column:chill_hours"`
	HeatingDegreeDays float64 `gorm:"column:heating_degree_days"`
	CoolingDegreeDays float64 `gorm:"column:cooling_degree_days"`
}

// TableName customizes the gorm table name.
func (observation) TableName() string {
	return "observations"
}

// TimescaleDB persists snapshots to a TimescaleDB hypertable.
type TimescaleDB struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewTimescaleDB connects and prepares the hypertable.
func NewTimescaleDB(ctx context.Context, connectionString string, logger *zap.SugaredLogger) (*TimescaleDB, error) {
	dbLogger := gormlogger.New(
		zap.NewStdLog(log.GetZapLogger()),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Warn,
		},
	)

	logger.Info("connecting to TimescaleDB...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
	if err != nil {
		return nil, fmt.Errorf("connecting to TimescaleDB: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&observation{}); err != nil {
		return nil, fmt.Errorf("migrating observations table: %w", err)
	}
	if err := db.WithContext(ctx).Exec(createExtensionSQL).Error; err != nil {
		logger.Warnf("could not create timescaledb extension: %v", err)
	}
	if err := db.WithContext(ctx).Exec(createHypertableSQL).Error; err != nil {
		logger.Warnf("could not create hypertable, continuing with plain table: %v", err)
	}

	return &TimescaleDB{db: db, logger: logger}, nil
}

func (t *TimescaleDB) Name() string { return "timescaledb" }

// StartSink launches the row writer.
func (t *TimescaleDB) StartSink(ctx context.Context, wg *sync.WaitGroup) chan<- accum.Snapshot {
	ch := make(chan accum.Snapshot, sinkBuffer)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-ch:
				if err := t.store(snap); err != nil {
					t.logger.Errorf("storing observation for [%s]: %v", snap.Station, err)
				}
			}
		}
	}()
	return ch
}

func (t *TimescaleDB) store(snap accum.Snapshot) error {
	row := toObservation(snap)
	return t.db.Create(&row).Error
}

// toObservation maps a snapshot onto the row shape. Measurables whose
// OK flag is false persist as NULL, not zero.
func toObservation(snap accum.Snapshot) observation {
	row := observation{
		Time:    snap.Timestamp,
		Station: snap.Station,

		DewPointC:  snap.DewPointC,
		WindChillC: snap.WindChillC,
		HeatIndexC: snap.HeatIndexC,
		FeelsLikeC: snap.FeelsLikeC,
		CloudBaseM: snap.CloudBaseM,

		WindGustMS:    snap.WindGustMS,
		WindDirDeg:    snap.WindDirDeg,
		WindAvgMS:     snap.WindAvgMS,
		WindAvgDirDeg: snap.WindAvgDirDeg,

		RainRateMMH:         snap.RainRateMMH,
		DayRainMM:           snap.DayRainMM,
		RainSinceMidnightMM: snap.RainSinceMidnightMM,

		SolarWM2: snap.SolarWM2,
		UVIndex:  snap.UVIndex,
		CO2PPM:   snap.CO2PPM,

		TempAvgC:          snap.TempAvgC,
		WindRunKM:         snap.WindRunKM,
		SunshineHours:     snap.SunshineHours,
		ChillHours:        snap.ChillHours,
		HeatingDegreeDays: snap.HeatingDegreeDays,
		CoolingDegreeDays: snap.CoolingDegreeDays,
	}

	if snap.TempOK {
		v := snap.TempC
		row.TempC = &v
	}
	if snap.HumidityOK {
		v := snap.Humidity
		row.Humidity = &v
	}
	if snap.WindOK {
		v := snap.WindSpeedMS
		row.WindSpeedMS = &v
	}
	if snap.PressureOK {
		v := snap.PressureHPa
		row.PressureHPa = &v
	}
	return row
}
