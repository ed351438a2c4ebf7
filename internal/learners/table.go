package learners

import (
	"github.com/askiada/go-reductions/pkg/reduction/model"
	"github.com/askiada/go-reductions/pkg/reduction/options"
)

const (
	Features model.StageID = "features"
	GD       model.StageID = "gd"
	BFGS     model.StageID = "bfgs"
	LDA      model.StageID = "lda"
	NN       model.StageID = "nn"
	Scorer   model.StageID = "scorer"
	Binary   model.StageID = "binary"
	Active   model.StageID = "active"
	OAA      model.StageID = "oaa"
	ECT      model.StageID = "ect"
	CSOAA    model.StageID = "csoaa"
	WAP      model.StageID = "wap"
	CB       model.StageID = "cb"
	Searn    model.StageID = "searn"
)

var (
	featuresOptions = []model.OptionSpec{
		intOpt(Features, "bit_precision", 18, false, "number of bits in the feature table"),
		stringsOpt(Features, "quadratic", "create and use quadratic features from pairs of namespaces"),
		stringsOpt(Features, "cubic", "create and use cubic features from triples of namespaces"),
		stringsOpt(Features, "ngram", "generate n-grams, optionally for one namespace (e.g. a2)"),
		stringsOpt(Features, "skips", "generate skips in n-grams, optionally for one namespace"),
		stringsOpt(Features, "ignore", "ignore namespaces beginning with these characters"),
		boolOpt(Features, "noconstant", false, "do not add a constant feature"),
	}
	gdOptions = []model.OptionSpec{
		boolOpt(GD, "adaptive", false, "use adaptive, individual learning rates"),
		boolOpt(GD, "normalized", false, "use per feature normalized updates"),
		boolOpt(GD, "invariant", false, "use safe/importance aware updates"),
		floatOpt(GD, "learning_rate", 0.5, true, "set the learning rate"),
		floatOpt(GD, "power_t", 0.5, true, "t power value"),
		floatOpt(GD, "initial_t", 0, true, "initial t value"),
		floatOpt(GD, "decay_learning_rate", 1, true, "decay factor for the learning rate between passes"),
		floatOpt(GD, "l1", 0, true, "l_1 lambda"),
		floatOpt(GD, "l2", 0, true, "l_2 lambda"),
	}
	bfgsOptions = []model.OptionSpec{
		boolOpt(BFGS, "bfgs", false, "use bfgs optimization"),
		boolOpt(BFGS, "conjugate_gradient", false, "use conjugate gradient based optimization"),
		intOpt(BFGS, "mem", 15, false, "memory in bfgs"),
		floatOpt(BFGS, "termination", 0.001, true, "termination threshold"),
		boolOpt(BFGS, "hessian_on", true, "use second derivative in line search"),
	}
	ldaOptions = []model.OptionSpec{
		intOpt(LDA, "lda", 0, false, "run lda with this many topics"),
		floatOpt(LDA, "lda_alpha", 0.1, true, "prior on sparsity of per-document topic weights"),
		floatOpt(LDA, "lda_rho", 0.1, true, "prior on sparsity of topic distributions"),
		floatOpt(LDA, "lda_D", 10000, true, "number of documents"),
		floatOpt(LDA, "lda_epsilon", 0.001, true, "loop convergence threshold"),
	}
	nnOptions = []model.OptionSpec{
		intOpt(NN, "nn", 0, false, "use a sigmoidal feedforward network with this many hidden units"),
		boolOpt(NN, "inpass", false, "train or test the network with an input passthrough"),
	}
	scorerOptions = []model.OptionSpec{
		stringOpt(Scorer, "link", "identity", false, "link function: identity or logistic"),
		floatOpt(Scorer, "min_prediction", -50, true, "smallest prediction to output"),
		floatOpt(Scorer, "max_prediction", 50, true, "largest prediction to output"),
	}
	binaryOptions = []model.OptionSpec{
		boolOpt(Binary, "binary", false, "report loss as binary classification on -1,1"),
	}
	activeOptions = []model.OptionSpec{
		boolOpt(Active, "active_learning", false, "active learning mode"),
		boolOpt(Active, "active_simulation", false, "active learning simulation mode"),
		floatOpt(Active, "mellowness", 8, true, "active learning mellowness parameter"),
	}
	oaaOptions = []model.OptionSpec{
		intOpt(OAA, "oaa", 0, false, "one-against-all multiclass with this many labels"),
	}
	ectOptions = []model.OptionSpec{
		intOpt(ECT, "ect", 0, false, "error correcting tournament with this many labels"),
		intOpt(ECT, "ect_error", 0, false, "number of errors the tournament tolerates"),
	}
	csoaaOptions = []model.OptionSpec{
		intOpt(CSOAA, "csoaa", 0, false, "one-against-all cost sensitive learning with this many costs"),
	}
	wapOptions = []model.OptionSpec{
		intOpt(WAP, "wap", 0, false, "weighted all pairs cost sensitive learning with this many costs"),
	}
	cbOptions = []model.OptionSpec{
		intOpt(CB, "cb", 0, false, "contextual bandit learning with this many actions"),
		stringOpt(CB, "cb_type", "dr", false, "contextual bandit method: dr, dm or ips"),
	}
	searnOptions = []model.OptionSpec{
		intOpt(Searn, "searn", 0, false, "use searn with this many actions"),
		stringOpt(Searn, "searn_task", "sequence", false, "searn task: sequence, sequencespan or entity_relation"),
		floatOpt(Searn, "searn_beta", 0.5, true, "interpolation rate for policies"),
		intOpt(Searn, "searn_passes_per_policy", 1, true, "number of passes per policy"),
	}
)

var (
	bases     = []model.StageID{GD, BFGS, LDA}
	costSense = []model.StageID{CSOAA, WAP}
)

func requireFeatures() model.Prerequisite {
	return model.Prerequisite{OneOf: []model.StageID{Features}, Substitute: Features}
}

func requireBase() model.Prerequisite {
	return model.Prerequisite{OneOf: bases, Substitute: GD}
}

func requireScorer() model.Prerequisite {
	return model.Prerequisite{OneOf: []model.StageID{Scorer}, Substitute: Scorer}
}

func after(ids ...model.StageID) model.Prerequisite {
	return model.Prerequisite{OneOf: ids, Optional: true}
}

// Table returns the built-in stage table, in declaration order.
func Table() []*model.StageDescriptor {
	return []*model.StageDescriptor{
		{
			ID:      Features,
			Options: names(featuresOptions),
			Input:   model.RawContract,
			Output:  model.FeaturesContract,
			Always:  true,
			Build:   buildFeatures,
		},
		{
			ID:            GD,
			Prerequisites: []model.Prerequisite{requireFeatures()},
			Options:       names(gdOptions),
			Input:         model.FeaturesContract,
			Output:        model.ScalarContract,
			Build:         buildGD,
		},
		{
			ID:            BFGS,
			Prerequisites: []model.Prerequisite{requireFeatures()},
			Excludes:      []model.StageID{GD, LDA},
			Options:       names(bfgsOptions),
			Input:         model.FeaturesContract,
			Output:        model.ScalarContract,
			Activate:      flagActive("bfgs", "conjugate_gradient"),
			Build:         buildBFGS,
		},
		{
			ID:            LDA,
			Prerequisites: []model.Prerequisite{requireFeatures()},
			Excludes:      []model.StageID{GD, BFGS},
			Options:       names(ldaOptions),
			Input:         model.FeaturesContract,
			Output:        model.ScalarContract,
			Activate:      countActive("lda"),
			Build:         buildLDA,
		},
		{
			ID:            NN,
			Prerequisites: []model.Prerequisite{requireBase()},
			Options:       names(nnOptions),
			Input:         model.ScalarContract,
			Output:        model.ScalarContract,
			Activate:      countActive("nn"),
			Build:         buildNN,
		},
		{
			ID:            Scorer,
			Prerequisites: []model.Prerequisite{requireBase(), after(NN)},
			Options:       names(scorerOptions),
			Input:         model.ScalarContract,
			Output:        model.ScalarContract,
			Always:        true,
			Build:         buildScorer,
		},
		{
			ID:            Binary,
			Prerequisites: []model.Prerequisite{requireScorer()},
			Options:       names(binaryOptions),
			Input:         model.ScalarContract,
			Output:        model.ScalarContract,
			Activate:      flagActive("binary"),
			Build:         buildBinary,
		},
		{
			ID:            Active,
			Prerequisites: []model.Prerequisite{requireScorer(), after(Binary)},
			Options:       names(activeOptions),
			Input:         model.ScalarContract,
			Output:        model.ScalarContract,
			Activate:      flagActive("active_learning", "active_simulation"),
			Build:         buildActive,
		},
		{
			ID:            OAA,
			Prerequisites: []model.Prerequisite{requireScorer(), after(Binary, Active)},
			Excludes:      []model.StageID{ECT, CSOAA, WAP},
			Options:       names(oaaOptions),
			Input:         model.ScalarContract,
			Output:        model.MulticlassContract,
			Activate:      countActive("oaa"),
			Build:         buildOAA,
		},
		{
			ID:            ECT,
			Prerequisites: []model.Prerequisite{requireScorer(), after(Binary, Active)},
			Excludes:      []model.StageID{CSOAA, WAP},
			Options:       names(ectOptions),
			Input:         model.ScalarContract,
			Output:        model.MulticlassContract,
			Activate:      countActive("ect"),
			Build:         buildECT,
		},
		{
			ID:            CSOAA,
			Prerequisites: []model.Prerequisite{requireScorer(), after(Binary, Active)},
			Excludes:      []model.StageID{WAP},
			Options:       names(csoaaOptions),
			Input:         model.ScalarContract,
			Output:        model.CostSensitiveContract,
			Activate:      countActive("csoaa"),
			Build:         buildCSOAA,
		},
		{
			ID:            WAP,
			Prerequisites: []model.Prerequisite{requireScorer(), after(Binary, Active)},
			Options:       names(wapOptions),
			Input:         model.ScalarContract,
			Output:        model.CostSensitiveContract,
			Activate:      countActive("wap"),
			Build:         buildWAP,
		},
		{
			ID:            CB,
			Prerequisites: []model.Prerequisite{{OneOf: costSense, Substitute: CSOAA}},
			Excludes:      []model.StageID{Searn},
			Options:       names(cbOptions),
			Input:         model.CostSensitiveContract,
			Output:        model.BanditContract,
			Activate:      countActive("cb"),
			Build:         buildCB,
		},
		{
			ID:            Searn,
			Prerequisites: []model.Prerequisite{{OneOf: costSense, Substitute: CSOAA}},
			Options:       names(searnOptions),
			Input:         model.CostSensitiveContract,
			Output:        model.StructuredContract,
			Activate:      countActive("searn"),
			Build:         buildSearn,
		},
	}
}

// Options returns the option specs of every built-in stage, in declaration order.
func Options() []model.OptionSpec {
	groups := [][]model.OptionSpec{
		featuresOptions, gdOptions, bfgsOptions, ldaOptions, nnOptions, scorerOptions,
		binaryOptions, activeOptions, oaaOptions, ectOptions, csoaaOptions, wapOptions,
		cbOptions, searnOptions,
	}

	out := []model.OptionSpec{}
	for _, group := range groups {
		out = append(out, group...)
	}

	return out
}

// Register declares the options of every built-in stage in reg.
func Register(reg *options.Registry) error {
	for _, spec := range Options() {
		err := reg.Register(spec)
		if err != nil {
			return err
		}
	}

	return nil
}
