package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/versich-treue/vtml-go/pkg/bundle"
	"github.com/versich-treue/vtml-go/pkg/logging"
)

// Vehicle age categories accepted on the wire. Each maps to exactly one of
// the indicator columns the model was trained on.
const (
	vehicleAgeUnderOne = "lt_1_year"
	vehicleAgeOneToTwo = "1_2_year"
	vehicleAgeOverTwo  = "gt_2_years"
)

var errNoModel = errors.New("no model deployed")

// PredictionRequest carries one raw customer record. Gender and
// Vehicle_Damage arrive as their source strings and VehicleAge as a
// category; the handler applies the same encoding the training transform
// does before the record reaches the bundle.
type PredictionRequest struct {
	Age                float64 `json:"age"`
	Gender             string  `json:"gender"`
	Vintage            float64 `json:"vintage"`
	RegionCode         float64 `json:"region_code"`
	AnnualPremium      float64 `json:"annual_premium"`
	VehicleDamage      string  `json:"vehicle_damage"`
	VehicleAge         string  `json:"vehicle_age"`
	DrivingLicense     float64 `json:"driving_license"`
	PreviouslyInsured  float64 `json:"previously_insured"`
	PolicySalesChannel float64 `json:"policy_sales_channel"`
}

// PredictionResponse is the scored verdict for one record.
type PredictionResponse struct {
	Prediction int    `json:"prediction"`
	Label      string `json:"label"`
	ModelName  string `json:"model_name,omitempty"`
	RunID      string `json:"run_id,omitempty"`
}

// encode expands the raw record into named features the way training
// encodes them: Female maps to 1, damage Yes maps to 1, and the vehicle
// age category sets exactly one of the three indicator columns.
func (req *PredictionRequest) encode() (map[string]float64, error) {
	feats := map[string]float64{
		"Age":                    req.Age,
		"Vintage":                req.Vintage,
		"Region_Code":            req.RegionCode,
		"Annual_Premium":         req.AnnualPremium,
		"Driving_License":        req.DrivingLicense,
		"Previously_Insured":     req.PreviouslyInsured,
		"Policy_Sales_Channel":   req.PolicySalesChannel,
		"Gender":                 0,
		"Vehicle_Damage":         0,
		"Vehicle_Age_lt_1_Year":  0,
		"Vehicle_Age_1_2_Year":   0,
		"Vehicle_Age_gt_2_Years": 0,
	}
	if req.Gender == "Female" {
		feats["Gender"] = 1
	}
	if req.VehicleDamage == "Yes" {
		feats["Vehicle_Damage"] = 1
	}
	switch req.VehicleAge {
	case vehicleAgeUnderOne:
		feats["Vehicle_Age_lt_1_Year"] = 1
	case vehicleAgeOneToTwo:
		feats["Vehicle_Age_1_2_Year"] = 1
	case vehicleAgeOverTwo:
		feats["Vehicle_Age_gt_2_Years"] = 1
	default:
		return nil, fmt.Errorf("unknown vehicle_age %q, want %s, %s or %s",
			req.VehicleAge, vehicleAgeUnderOne, vehicleAgeOneToTwo, vehicleAgeOverTwo)
	}
	return feats, nil
}

// vectorFor orders the encoded features the way the bundle was trained.
// Column order is decided at fit time and recorded in the bundle metadata;
// serving follows that record instead of assuming a fixed layout.
func vectorFor(b *bundle.ModelBundle, feats map[string]float64) ([]float64, error) {
	vec := make([]float64, len(b.Metadata.FeatureColumns))
	for i, col := range b.Metadata.FeatureColumns {
		v, ok := feats[col]
		if !ok {
			return nil, fmt.Errorf("deployed model expects feature %q, which the prediction contract does not carry", col)
		}
		vec[i] = v
	}
	return vec, nil
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	feats, err := req.encode()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b, err := s.currentBundle(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	vec, err := vectorFor(b, feats)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	pred, err := b.PredictOne(vec)
	if err != nil {
		s.logger.Error("prediction failed", err, logging.Component("api"))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("prediction failed: %v", err))
		return
	}

	resp := PredictionResponse{
		Prediction: pred,
		Label:      "Response-No",
		ModelName:  b.Metadata.ModelName,
		RunID:      b.Metadata.RunID,
	}
	if pred == 1 {
		resp.Label = "Response-Yes"
	}
	writeJSON(w, http.StatusOK, resp)
}

// currentBundle returns the cached production bundle, loading it from the
// object store on first use.
func (s *Server) currentBundle(ctx context.Context) (*bundle.ModelBundle, error) {
	s.mu.RLock()
	b := s.bundle
	s.mu.RUnlock()
	if b != nil {
		return b, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bundle != nil {
		return s.bundle, nil
	}

	fetched, found, err := s.store.FetchBundle(ctx, s.cfg.RemoteModelKey)
	if err != nil {
		return nil, fmt.Errorf("fetching production model: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w under key %s", errNoModel, s.cfg.RemoteModelKey)
	}

	s.logger.Info("production model loaded",
		logging.String("model", fetched.Metadata.ModelName),
		logging.String("run_id", fetched.Metadata.RunID),
		logging.Float("accuracy", fetched.Metadata.Accuracy),
		logging.Component("api"))
	s.bundle = fetched
	return fetched, nil
}

// InvalidateModel drops the cached bundle so the next request reloads it
// from the object store. The serve loop calls this after a run deploys a
// new model.
func (s *Server) InvalidateModel() {
	s.mu.Lock()
	s.bundle = nil
	s.mu.Unlock()
}
