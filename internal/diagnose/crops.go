package diagnose

import (
	"sort"
	"strings"
)

// Crop identifies one of the supported crops.
type Crop string

const (
	CropPotato   Crop = "potato"
	CropOnion    Crop = "onion"
	CropGarlic   Crop = "garlic"
	CropTomato   Crop = "tomato"
	CropCucumber Crop = "cucumber"
	CropPepper   Crop = "pepper"
	CropCabbage  Crop = "cabbage"
	CropCarrot   Crop = "carrot"
	CropWheat    Crop = "wheat"
	CropApple    Crop = "apple"
)

// GrowthStage identifies a phenological stage. Validity is crop-dependent.
type GrowthStage string

const (
	StageSeedling   GrowthStage = "seedling"
	StageVegetative GrowthStage = "vegetative"
	StageFlowering  GrowthStage = "flowering"
	StageFruiting   GrowthStage = "fruiting"
	StageMaturation GrowthStage = "maturation"
	StageBulbing    GrowthStage = "bulbing"
	StageTillering  GrowthStage = "tillering"
	StageHeading    GrowthStage = "heading"
)

var stagesByCrop = map[Crop][]GrowthStage{
	CropPotato:   {StageSeedling, StageVegetative, StageFlowering, StageMaturation},
	CropOnion:    {StageSeedling, StageVegetative, StageBulbing, StageMaturation},
	CropGarlic:   {StageSeedling, StageVegetative, StageBulbing, StageMaturation},
	CropTomato:   {StageSeedling, StageVegetative, StageFlowering, StageFruiting, StageMaturation},
	CropCucumber: {StageSeedling, StageVegetative, StageFlowering, StageFruiting},
	CropPepper:   {StageSeedling, StageVegetative, StageFlowering, StageFruiting, StageMaturation},
	CropCabbage:  {StageSeedling, StageVegetative, StageMaturation},
	CropCarrot:   {StageSeedling, StageVegetative, StageMaturation},
	CropWheat:    {StageSeedling, StageTillering, StageHeading, StageMaturation},
	CropApple:    {StageVegetative, StageFlowering, StageFruiting, StageMaturation},
}

// SupportedCrops returns the crop identifiers in deterministic order.
func SupportedCrops() []Crop {
	crops := make([]Crop, 0, len(stagesByCrop))
	for crop := range stagesByCrop {
		crops = append(crops, crop)
	}
	sort.Slice(crops, func(i, j int) bool { return crops[i] < crops[j] })
	return crops
}

// ParseCrop normalizes and validates a crop identifier.
func ParseCrop(value string) (Crop, bool) {
	crop := Crop(strings.ToLower(strings.TrimSpace(value)))
	_, ok := stagesByCrop[crop]
	return crop, ok
}

// ParseStage normalizes a growth-stage identifier without crop context.
func ParseStage(value string) GrowthStage {
	return GrowthStage(strings.ToLower(strings.TrimSpace(value)))
}

// StagesFor returns the growth stages valid for the given crop.
func StagesFor(crop Crop) []GrowthStage {
	stages := stagesByCrop[crop]
	cp := make([]GrowthStage, len(stages))
	copy(cp, stages)
	return cp
}

// ValidStage reports whether the stage is valid for the crop.
func ValidStage(crop Crop, stage GrowthStage) bool {
	for _, s := range stagesByCrop[crop] {
		if s == stage {
			return true
		}
	}
	return false
}

// KnownStage reports whether the stage exists for any crop.
func KnownStage(stage GrowthStage) bool {
	for _, stages := range stagesByCrop {
		for _, s := range stages {
			if s == stage {
				return true
			}
		}
	}
	return false
}
