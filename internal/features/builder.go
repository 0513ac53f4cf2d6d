package features

import (
	"log"
	"math"
	"sort"
	"time"

	"github.com/ald0405/whoop-backend-go/internal/models"
	"github.com/ald0405/whoop-backend-go/internal/stats"
)

const (
	rollingShortWindow = 7
	rollingLongWindow  = 14
	rollingMinPeriods  = 3
	strainSumWindow    = 3
	millisPerHour      = 3_600_000.0
)

// BuildInput carries the raw records for one feature build. Recoveries
// are the hub; sleeps, cycles and workouts are joined onto them.
type BuildInput struct {
	Recoveries []models.Recovery
	Sleeps     []models.Sleep
	Cycles     []models.Cycle
	Workouts   []models.Workout
}

// Build joins the raw records into one FeatureRow per scored recovery
// and derives the engineered columns: stage hours, quality and debt
// scores, lag-1 values, 7/14-day rolling statistics, deviations and
// workout aggregates. Rows come back sorted by date ascending.
func Build(in BuildInput) []FeatureRow {
	sleepsByID := make(map[int64]*models.Sleep, len(in.Sleeps))
	for i := range in.Sleeps {
		sleepsByID[in.Sleeps[i].ID] = &in.Sleeps[i]
	}
	cyclesByID := make(map[int64]*models.Cycle, len(in.Cycles))
	for i := range in.Cycles {
		cyclesByID[in.Cycles[i].ID] = &in.Cycles[i]
	}
	workoutsByCycle := make(map[int64][]*models.Workout)
	for i := range in.Workouts {
		w := &in.Workouts[i]
		workoutsByCycle[w.CycleID] = append(workoutsByCycle[w.CycleID], w)
	}

	rows := make([]FeatureRow, 0, len(in.Recoveries))
	for i := range in.Recoveries {
		rec := &in.Recoveries[i]
		if rec.RecoveryScore == nil {
			continue
		}
		row := newRow(rec)
		if s, ok := sleepsByID[rec.SleepID]; ok {
			applySleep(&row, s)
		}
		if c, ok := cyclesByID[rec.CycleID]; ok {
			applyCycle(&row, c)
		}
		applyWorkouts(&row, workoutsByCycle[rec.CycleID])
		rows = append(rows, row)
	}

	sort.Slice(rows, func(a, b int) bool { return rows[a].Date.Before(rows[b].Date) })

	applyLags(rows)
	applyRolling(rows)
	return rows
}

// EmptyRow returns a row with every metric missing. Scenario inputs
// start from it so unset columns fall through to trained medians.
func EmptyRow() FeatureRow {
	var row FeatureRow
	nanAll(&row)
	return row
}

func newRow(rec *models.Recovery) FeatureRow {
	row := FeatureRow{RecoveryID: rec.ID, CycleID: rec.CycleID, SleepID: rec.SleepID, Date: rec.CreatedAt}
	nanAll(&row)
	row.RecoveryScore = *rec.RecoveryScore
	row.HRVRmssdMilli = fval(rec.HRVRmssdMilli)
	row.RestingHeartRate = fval(rec.RestingHeartRate)
	row.SpO2Percentage = fval(rec.SpO2Percentage)
	row.SkinTempCelsius = fval(rec.SkinTempCelsius)
	row.DayOfWeek = float64(int(rec.CreatedAt.Weekday()+6) % 7)
	row.IsWeekend = 0
	if row.DayOfWeek >= 5 {
		row.IsWeekend = 1
	}
	row.HadWorkout = 0
	row.WorkoutCount = 0
	row.WorkoutStrain = 0
	row.WorkoutKilojoule = 0
	row.SportID = -1
	row.MorningWorkout = 0
	row.EveningWorkout = 0
	row.Zone0Minutes, row.Zone1Minutes, row.Zone2Minutes = 0, 0, 0
	row.Zone3Minutes, row.Zone4Minutes, row.Zone5Minutes = 0, 0, 0
	row.Zone0Pct, row.Zone1Pct, row.Zone2Pct = 0, 0, 0
	row.Zone3Pct, row.Zone4Pct, row.Zone5Pct = 0, 0, 0
	row.HighIntensityPct = 0
	return row
}

func applySleep(row *FeatureRow, s *models.Sleep) {
	inBed := i64val(s.TotalInBedTimeMilli)
	awake := millisOrZero(s.TotalAwakeTimeMilli)
	noData := millisOrZero(s.TotalNoDataTimeMilli)
	sws := millisOrZero(s.TotalSlowWaveSleepTimeMilli)
	rem := millisOrZero(s.TotalRemSleepTimeMilli)

	row.TimeInBedHours = inBed / millisPerHour
	row.AwakeTimeHours = awake / millisPerHour
	row.SlowWaveSleepHours = sws / millisPerHour
	row.RemSleepHours = rem / millisPerHour
	if !math.IsNaN(inBed) {
		row.SleepHours = (inBed - awake) / millisPerHour
		light := inBed - awake - noData - sws - rem
		row.LightSleepHours = stats.Clip(light, 0, math.Inf(1)) / millisPerHour
	}
	if row.SleepHours > 0 {
		row.RemPercentage = row.RemSleepHours / row.SleepHours * 100
		row.DeepSleepPercentage = row.SlowWaveSleepHours / row.SleepHours * 100
	}

	row.SleepEfficiencyPercentage = fval(s.SleepEfficiencyPercentage)
	row.SleepConsistencyPercentage = fval(s.SleepConsistencyPercentage)
	row.DisturbanceCount = i64val(s.DisturbanceCount)
	row.RespiratoryRate = fval(s.RespiratoryRate)

	baseline := i64val(s.SleepNeedBaselineMilli)
	debt := i64val(s.SleepNeedFromDebtMilli)
	strainNeed := i64val(s.SleepNeedFromStrainMilli)
	if !math.IsNaN(baseline) {
		row.SleepNeedHours = (baseline + zeroIfNaN(debt) + zeroIfNaN(strainNeed)) / millisPerHour
		if !math.IsNaN(row.SleepHours) {
			row.SleepDeficit = row.SleepNeedHours - row.SleepHours
		}
	}
	if !math.IsNaN(debt) {
		row.SleepDebtHours = debt / millisPerHour
	}
	if s.Start != nil {
		row.BedtimeHour = float64(s.Start.Hour()) + float64(s.Start.Minute())/60

	}
	row.SleepQualityScore = sleepQualityScore(
		row.SleepEfficiencyPercentage, row.RemPercentage,
		row.DeepSleepPercentage, row.DisturbanceCount,
	)
}

// sleepQualityScore blends efficiency, stage ratios and disturbances
// into a 0-100 composite. Any missing component makes the score
// missing.
func sleepQualityScore(efficiency, remPct, deepPct, disturbances float64) float64 {
	if math.IsNaN(efficiency) || math.IsNaN(remPct) || math.IsNaN(deepPct) || math.IsNaN(disturbances) {
		return math.NaN()
	}
	disturbance := stats.Clip(100-5*disturbances, 0, 100)
	return 0.3*efficiency + 0.25*remPct + 0.25*deepPct + 0.2*disturbance
}

func applyCycle(row *FeatureRow, c *models.Cycle) {
	row.Strain = fval(c.Strain)
	row.Kilojoule = fval(c.Kilojoule)
	row.AverageHeartRate = fval(c.AverageHeartRate)
	row.MaxHeartRate = fval(c.MaxHeartRate)
	if !math.IsNaN(row.MaxHeartRate) && !math.IsNaN(row.RestingHeartRate) {
		row.HRReserve = row.MaxHeartRate - row.RestingHeartRate
	}
}

// applyWorkouts aggregates the day's workouts onto the row. The row
// already carries zero-filled defaults; any failure leaves them in
// place so a malformed workout day never drops the recovery row.
func applyWorkouts(row *FeatureRow, workouts []*models.Workout) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("workout aggregation failed for cycle %d: %v", row.CycleID, r)
		}
	}()
	if len(workouts) == 0 {
		return
	}

	var strainSum, kjSum float64
	var zones [6]float64
	sportCounts := make(map[int64]int)
	var earliest *time.Time
	for _, w := range workouts {
		strainSum += zeroIfNaN(fval(w.Strain))
		kjSum += zeroIfNaN(fval(w.Kilojoule))
		zones[0] += w.ZoneZeroMinutes
		zones[1] += w.ZoneOneMinutes
		zones[2] += w.ZoneTwoMinutes
		zones[3] += w.ZoneThreeMinutes
		zones[4] += w.ZoneFourMinutes
		zones[5] += w.ZoneFiveMinutes
		sportCounts[w.SportID]++
		if w.Start != nil && (earliest == nil || w.Start.Before(*earliest)) {
			earliest = w.Start
		}
	}

	row.HadWorkout = 1
	row.WorkoutCount = float64(len(workouts))
	row.WorkoutStrain = strainSum
	row.WorkoutKilojoule = kjSum
	row.Zone0Minutes, row.Zone1Minutes, row.Zone2Minutes = zones[0], zones[1], zones[2]
	row.Zone3Minutes, row.Zone4Minutes, row.Zone5Minutes = zones[3], zones[4], zones[5]

	total := zones[0] + zones[1] + zones[2] + zones[3] + zones[4] + zones[5]
	if total > 0 {
		row.Zone0Pct = zones[0] / total * 100
		row.Zone1Pct = zones[1] / total * 100
		row.Zone2Pct = zones[2] / total * 100
		row.Zone3Pct = zones[3] / total * 100
		row.Zone4Pct = zones[4] / total * 100
		row.Zone5Pct = zones[5] / total * 100
		row.HighIntensityPct = (zones[4] + zones[5]) / total * 100
	}

	if mode, ok := sportMode(sportCounts); ok {
		row.SportID = float64(mode)
	}
	if earliest != nil {
		h := earliest.Hour()
		row.WorkoutStartHour = float64(h)
		if h < 12 {
			row.MorningWorkout = 1
		}
		if h >= 18 {
			row.EveningWorkout = 1
		}
	}
}

// sportMode picks the most frequent sport id, lowest id on ties.
func sportMode(counts map[int64]int) (int64, bool) {
	var best int64
	bestN := 0
	for id, n := range counts {
		if n > bestN || (n == bestN && bestN > 0 && id < best) {
			best, bestN = id, n
		}
	}
	return best, bestN > 0
}

func applyLags(rows []FeatureRow) {
	for i := len(rows) - 1; i >= 1; i-- {
		rows[i].PrevRecoveryScore = rows[i-1].RecoveryScore
		rows[i].PrevHRV = rows[i-1].HRVRmssdMilli
		rows[i].PrevRHR = rows[i-1].RestingHeartRate
		rows[i].PrevStrain = rows[i-1].Strain
	}
}

func applyRolling(rows []FeatureRow) {
	hrv := columnOf(rows, func(r *FeatureRow) float64 { return r.HRVRmssdMilli })
	rhr := columnOf(rows, func(r *FeatureRow) float64 { return r.RestingHeartRate })
	strain := columnOf(rows, func(r *FeatureRow) float64 { return r.Strain })
	sleep := columnOf(rows, func(r *FeatureRow) float64 { return r.SleepHours })
	recovery := columnOf(rows, func(r *FeatureRow) float64 { return r.RecoveryScore })
	bedtime := columnOf(rows, func(r *FeatureRow) float64 { return r.BedtimeHour })

	for i := range rows {
		r := &rows[i]
		r.HRVRolling7d = rollingMean(hrv, i, rollingShortWindow)
		r.RHRRolling7d = rollingMean(rhr, i, rollingShortWindow)
		r.StrainRolling7d = rollingMean(strain, i, rollingShortWindow)
		r.SleepRolling7d = rollingMean(sleep, i, rollingShortWindow)
		r.RecoveryRolling7d = rollingMean(recovery, i, rollingShortWindow)
		r.HRVStd7d = rollingStd(hrv, i, rollingShortWindow)
		r.RHRStd7d = rollingStd(rhr, i, rollingShortWindow)

		r.HRVRolling14d = rollingMean(hrv, i, rollingLongWindow)
		r.RHRRolling14d = rollingMean(rhr, i, rollingLongWindow)
		r.StrainRolling14d = rollingMean(strain, i, rollingLongWindow)
		r.SleepRolling14d = rollingMean(sleep, i, rollingLongWindow)

		r.HRVDeviationFromAvg = r.HRVRmssdMilli - r.HRVRolling7d
		r.RHRDeviationFromAvg = r.RestingHeartRate - r.RHRRolling7d
		r.StrainDeviationFromAvg = r.Strain - r.StrainRolling7d

		r.Strain3dSum = rollingSum(strain, i, strainSumWindow)

		if std := rollingStd(bedtime, i, rollingShortWindow); !math.IsNaN(std) {
			r.BedtimeConsistencyScore = stats.Clip(100-std*20, 0, 100)
		}

		r.HasRollingFeatures = i >= rollingLongWindow-1
	}
}

// rollingMean averages window values ending at i, skipping NaNs.
// Fewer than rollingMinPeriods observed values yields NaN.
func rollingMean(vals []float64, i, window int) float64 {
	sum, n := windowSum(vals, i, window)
	if n < rollingMinPeriods {
		return math.NaN()
	}
	return sum / float64(n)
}

func rollingStd(vals []float64, i, window int) float64 {
	mean, _ := meanCount(vals, i, window)
	if math.IsNaN(mean) {
		return math.NaN()
	}
	var ss float64
	n := 0
	for j := start(i, window); j <= i; j++ {
		if math.IsNaN(vals[j]) {
			continue
		}
		d := vals[j] - mean
		ss += d * d
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	return math.Sqrt(ss / float64(n-1))
}

// rollingSum treats NaN as zero so a single missing day does not wipe
// the cumulative strain signal.
func rollingSum(vals []float64, i, window int) float64 {
	sum, _ := windowSum(vals, i, window)
	return sum
}

func meanCount(vals []float64, i, window int) (float64, int) {
	sum, n := windowSum(vals, i, window)
	if n < rollingMinPeriods {
		return math.NaN(), n
	}
	return sum / float64(n), n
}

func windowSum(vals []float64, i, window int) (float64, int) {
	var sum float64
	n := 0
	for j := start(i, window); j <= i; j++ {
		if math.IsNaN(vals[j]) {
			continue
		}
		sum += vals[j]
		n++
	}
	return sum, n
}

func start(i, window int) int {
	s := i - window + 1
	if s < 0 {
		return 0
	}
	return s
}

func columnOf(rows []FeatureRow, get func(*FeatureRow) float64) []float64 {
	out := make([]float64, len(rows))
	for i := range rows {
		out[i] = get(&rows[i])
	}
	return out
}

func nanAll(row *FeatureRow) {
	nan := math.NaN()
	row.RecoveryScore = nan
	row.HRVRmssdMilli = nan
	row.RestingHeartRate = nan
	row.SpO2Percentage = nan
	row.SkinTempCelsius = nan
	row.SleepHours = nan
	row.TimeInBedHours = nan
	row.RemSleepHours = nan
	row.SlowWaveSleepHours = nan
	row.LightSleepHours = nan
	row.AwakeTimeHours = nan
	row.RemPercentage = nan
	row.DeepSleepPercentage = nan
	row.SleepEfficiencyPercentage = nan
	row.SleepConsistencyPercentage = nan
	row.DisturbanceCount = nan
	row.RespiratoryRate = nan
	row.SleepQualityScore = nan
	row.SleepNeedHours = nan
	row.SleepDeficit = nan
	row.SleepDebtHours = nan
	row.BedtimeHour = nan
	row.Strain = nan
	row.Kilojoule = nan
	row.AverageHeartRate = nan
	row.MaxHeartRate = nan
	row.HRReserve = nan
	row.PrevRecoveryScore = nan
	row.PrevHRV = nan
	row.PrevRHR = nan
	row.PrevStrain = nan
	row.RecoveryRolling7d = nan
	row.HRVRolling7d = nan
	row.RHRRolling7d = nan
	row.StrainRolling7d = nan
	row.SleepRolling7d = nan
	row.HRVStd7d = nan
	row.RHRStd7d = nan
	row.HRVRolling14d = nan
	row.RHRRolling14d = nan
	row.StrainRolling14d = nan
	row.SleepRolling14d = nan
	row.HRVDeviationFromAvg = nan
	row.RHRDeviationFromAvg = nan
	row.StrainDeviationFromAvg = nan
	row.Strain3dSum = nan
	row.BedtimeConsistencyScore = nan
	row.WorkoutStartHour = nan
}
