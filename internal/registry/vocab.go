package registry

import "github.com/quelaag/evsc/internal/ir"

// Opcodes for the fixed test vocabulary, grouped by category byte.
const (
	// Flag tests.
	OpFlagEnabled  ir.Opcode = 0x0101
	OpFlagDisabled ir.Opcode = 0x0102

	// Region and distance tests.
	OpInsideRegion   ir.Opcode = 0x0201
	OpOutsideRegion  ir.Opcode = 0x0202
	OpWithinDistance ir.Opcode = 0x0203
	OpBeyondDistance ir.Opcode = 0x0204

	// Possession tests. "Has" variants exclude storage, "Owns" variants
	// include it.
	OpHasWeapon  ir.Opcode = 0x0301
	OpHasArmor   ir.Opcode = 0x0302
	OpHasRing    ir.Opcode = 0x0303
	OpHasGood    ir.Opcode = 0x0304
	OpOwnsWeapon ir.Opcode = 0x0311
	OpOwnsArmor  ir.Opcode = 0x0312
	OpOwnsRing   ir.Opcode = 0x0313
	OpOwnsGood   ir.Opcode = 0x0314

	// Character state tests.
	OpIsAlive     ir.Opcode = 0x0401
	OpIsDead      ir.Opcode = 0x0402
	OpIsHuman     ir.Opcode = 0x0403
	OpIsHollow    ir.Opcode = 0x0404
	OpHasAIStatus ir.Opcode = 0x0405
	OpIsTeamType  ir.Opcode = 0x0406
	OpHasCovenant ir.Opcode = 0x0407
	OpIsClassType ir.Opcode = 0x0408

	// Object and collision tests.
	OpObjectDestroyed     ir.Opcode = 0x0501
	OpObjectActivated     ir.Opcode = 0x0502
	OpStandingOnCollision ir.Opcode = 0x0503

	// Multiplayer role tests.
	OpIsHost         ir.Opcode = 0x0601
	OpIsClient       ir.Opcode = 0x0602
	OpIsSingleplayer ir.Opcode = 0x0603
	OpIsMultiplayer  ir.Opcode = 0x0604
	OpIsOnline       ir.Opcode = 0x0605

	// World state tests.
	OpWorldTendency ir.Opcode = 0x0701
)

// Enum ranges for enum-typed arguments.
const (
	AIStatusMin = 0 // Normal
	AIStatusMax = 3 // Battle

	TeamTypeMin = -1 // Default
	TeamTypeMax = 15 // Charm

	CovenantMin = 0 // NoCovenant
	CovenantMax = 9 // ChaosServant

	ClassTypeMin = 0
	ClassTypeMax = 9

	TendencyWhite = 0
	TendencyBlack = 1

	ComparisonMin = 0 // Equal
	ComparisonMax = 5 // LessOrEqual
)

// RegisterVocabulary populates a registry with the fixed DSL test surface.
// Every surface name maps 1:1 to a TestSpec; the table is closed.
func RegisterVocabulary(r *Registry) error {
	flag := ir.ArgSpec{Name: "flag", Type: ir.TypeFlagID}
	character := ir.ArgSpec{Name: "character", Type: ir.TypeEntityID}
	item := ir.ArgSpec{Name: "item", Type: ir.TypeItemID}

	specs := []ir.TestSpec{
		{Name: "FlagEnabled", Op: OpFlagEnabled, Args: []ir.ArgSpec{flag}, Negatable: true},
		{Name: "FlagDisabled", Op: OpFlagDisabled, Args: []ir.ArgSpec{flag}, Negatable: true},

		{Name: "InsideRegion", Op: OpInsideRegion, Negatable: true, Args: []ir.ArgSpec{
			character,
			{Name: "region", Type: ir.TypeRegionID},
		}},
		{Name: "OutsideRegion", Op: OpOutsideRegion, Negatable: true, Args: []ir.ArgSpec{
			character,
			{Name: "region", Type: ir.TypeRegionID},
		}},
		{Name: "WithinDistance", Op: OpWithinDistance, Negatable: true, Args: []ir.ArgSpec{
			{Name: "entity", Type: ir.TypeEntityID},
			{Name: "other", Type: ir.TypeEntityID},
			{Name: "max_distance", Type: ir.TypeDistance},
		}},
		{Name: "BeyondDistance", Op: OpBeyondDistance, Negatable: true, Args: []ir.ArgSpec{
			{Name: "entity", Type: ir.TypeEntityID},
			{Name: "other", Type: ir.TypeEntityID},
			{Name: "min_distance", Type: ir.TypeDistance},
		}},

		{Name: "HasWeapon", Op: OpHasWeapon, Args: []ir.ArgSpec{item}, Negatable: true},
		{Name: "HasArmor", Op: OpHasArmor, Args: []ir.ArgSpec{item}, Negatable: true},
		{Name: "HasRing", Op: OpHasRing, Args: []ir.ArgSpec{item}, Negatable: true},
		{Name: "HasGood", Op: OpHasGood, Args: []ir.ArgSpec{item}, Negatable: true},
		{Name: "OwnsWeapon", Op: OpOwnsWeapon, Args: []ir.ArgSpec{item}, Negatable: true},
		{Name: "OwnsArmor", Op: OpOwnsArmor, Args: []ir.ArgSpec{item}, Negatable: true},
		{Name: "OwnsRing", Op: OpOwnsRing, Args: []ir.ArgSpec{item}, Negatable: true},
		{Name: "OwnsGood", Op: OpOwnsGood, Args: []ir.ArgSpec{item}, Negatable: true},

		{Name: "IsAlive", Op: OpIsAlive, Args: []ir.ArgSpec{character}, Negatable: true},
		{Name: "IsDead", Op: OpIsDead, Args: []ir.ArgSpec{character}, Negatable: true},
		{Name: "IsHuman", Op: OpIsHuman, Args: []ir.ArgSpec{character}, Negatable: true},
		{Name: "IsHollow", Op: OpIsHollow, Args: []ir.ArgSpec{character}, Negatable: true},
		{Name: "HasAIStatus", Op: OpHasAIStatus, Negatable: true, Args: []ir.ArgSpec{
			character,
			{Name: "ai_status", Type: ir.TypeEnum, Min: AIStatusMin, Max: AIStatusMax},
		}},
		{Name: "IsTeamType", Op: OpIsTeamType, Negatable: true, Args: []ir.ArgSpec{
			character,
			{Name: "team_type", Type: ir.TypeEnum, Min: TeamTypeMin, Max: TeamTypeMax},
		}},
		{Name: "HasCovenant", Op: OpHasCovenant, Negatable: true, Args: []ir.ArgSpec{
			{Name: "covenant", Type: ir.TypeEnum, Min: CovenantMin, Max: CovenantMax},
		}},
		{Name: "IsClassType", Op: OpIsClassType, Negatable: true, Args: []ir.ArgSpec{
			{Name: "class", Type: ir.TypeEnum, Min: ClassTypeMin, Max: ClassTypeMax},
		}},

		{Name: "ObjectDestroyed", Op: OpObjectDestroyed, Negatable: true, Args: []ir.ArgSpec{
			{Name: "obj", Type: ir.TypeObjectID},
		}},
		{Name: "ObjectActivated", Op: OpObjectActivated, Negatable: true, Args: []ir.ArgSpec{
			{Name: "obj", Type: ir.TypeObjectID},
		}},
		{Name: "StandingOnCollision", Op: OpStandingOnCollision, Negatable: true, Args: []ir.ArgSpec{
			{Name: "collision", Type: ir.TypeCollisionID},
		}},

		{Name: "IsHost", Op: OpIsHost, Negatable: true},
		{Name: "IsClient", Op: OpIsClient, Negatable: true},
		{Name: "IsSingleplayer", Op: OpIsSingleplayer, Negatable: true},
		{Name: "IsMultiplayer", Op: OpIsMultiplayer, Negatable: true},
		{Name: "IsOnline", Op: OpIsOnline, Negatable: true},

		// The VM has no negation bit for tendency comparisons; invert the
		// comparison operator instead.
		{Name: "WorldTendency", Op: OpWorldTendency, Negatable: false, Args: []ir.ArgSpec{
			{Name: "tendency", Type: ir.TypeEnum, Min: TendencyWhite, Max: TendencyBlack},
			{Name: "comparison", Type: ir.TypeEnum, Min: ComparisonMin, Max: ComparisonMax},
			{Name: "value", Type: ir.TypeCount},
		}},
	}

	for _, spec := range specs {
		if err := r.Register(spec); err != nil {
			return err
		}
	}
	return nil
}
